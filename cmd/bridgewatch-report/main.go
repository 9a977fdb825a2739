package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/roeblinglabs/bridgewatch/core"
	"github.com/roeblinglabs/bridgewatch/internal/ingest"
	"github.com/roeblinglabs/bridgewatch/model"
)

func main() {
	snapshotPath := flag.String("snapshot", "current_ships.json", "Snapshot file to analyze")
	piersPath := flag.String("piers", "", "JSON pier table; empty uses the built-in Chesapeake Bay Bridge Eastbound table")
	levelFilter := flag.String("level", "", "Only show one threat level (CRITICAL, HIGH, MEDIUM, LOW)")
	topN := flag.Int("top", 20, "Show at most N vessels; 0 shows all")
	project := flag.Duration("project", 0, "Dead-reckon vessel positions this far forward before analyzing")
	asJSON := flag.Bool("json", false, "Emit JSON instead of a table")
	flag.Parse()

	level := model.ThreatLevel(strings.ToUpper(*levelFilter))
	if *levelFilter != "" && level.Rank() < 0 {
		fmt.Fprintf(os.Stderr, "unknown threat level %q\n", *levelFilter)
		os.Exit(2)
	}

	piers, err := loadPiers(*piersPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load pier table: %v\n", err)
		os.Exit(1)
	}

	snap, err := ingest.FileSource{Path: *snapshotPath}.Fetch(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load snapshot: %v\n", err)
		os.Exit(1)
	}

	if *project > 0 {
		for i := range snap.Vessels {
			projectVessel(&snap.Vessels[i], *project)
		}
	}

	analyses := core.AnalyzeFleet(snap.Vessels, piers)
	summary := core.Summarize(analyses)

	shown := make([]model.ThreatAnalysis, 0, len(analyses))
	for _, a := range analyses {
		if *levelFilter != "" && a.ThreatLevel != level {
			continue
		}
		shown = append(shown, a)
		if *topN > 0 && len(shown) == *topN {
			break
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Timestamp time.Time              `json:"timestamp"`
			Summary   model.FleetSummary     `json:"summary"`
			Analyses  []model.ThreatAnalysis `json:"analyses"`
		}{snap.Timestamp, summary, shown}); err != nil {
			fmt.Fprintf(os.Stderr, "encode report: %v\n", err)
			os.Exit(1)
		}
		return
	}

	printReport(snap.Timestamp, summary, shown, *project)
}

// projectVessel advances a vessel along its reported course. Vessels
// without a position or speed stay put.
func projectVessel(v *model.VesselReport, d time.Duration) {
	if !v.HasPosition() {
		return
	}
	pos := core.DeadReckon(
		core.LatLon{Lat: *v.Latitude, Lon: *v.Longitude},
		v.COG(), v.SOG(), d,
	)
	v.Latitude = &pos.Lat
	v.Longitude = &pos.Lon
}

func printReport(ts time.Time, summary model.FleetSummary, analyses []model.ThreatAnalysis, projected time.Duration) {
	if ts.IsZero() {
		fmt.Println("Snapshot time: unknown")
	} else {
		fmt.Printf("Snapshot time: %s\n", ts.Format(time.RFC3339))
	}
	if projected > 0 {
		fmt.Printf("Positions projected %s ahead\n", projected)
	}
	fmt.Printf("Fleet: %d vessels, %d approaching, max impact %.1f MN\n",
		summary.TotalVessels, summary.ApproachingCount, summary.MaxImpactForceMN)
	fmt.Printf("Threats: %d CRITICAL / %d HIGH / %d MEDIUM / %d LOW\n\n",
		summary.Critical, summary.High, summary.Medium, summary.Low)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LEVEL\tSCORE\tVESSEL\tMMSI\tTYPE\tPIER\tDIST(nm)\tSPEED(kn)\tETA(min)\tIMPACT(MN)")
	for _, a := range analyses {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%.2f\t%.1f\t%s\t%.1f\n",
			a.ThreatLevel, a.ThreatScore, a.VesselName, a.MMSI, a.ShipType,
			a.ClosestPier, a.DistanceNM, a.SpeedKnots, formatETA(a.TimeToPierMin), a.ImpactForceMN)
	}
	w.Flush()
}

func formatETA(min *float64) string {
	if min == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *min)
}

func loadPiers(path string) (*core.PierTable, error) {
	if path == "" {
		return core.ChesapeakeBayBridgeEastbound(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return core.LoadPierTable(f)
}
