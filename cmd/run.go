package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pandemic-sim/pandemic-sim/sim"
	"github.com/pandemic-sim/pandemic-sim/sim/env"
	"github.com/pandemic-sim/pandemic-sim/sim/recorder"
	"github.com/pandemic-sim/pandemic-sim/sim/trace"
)

// runOptions is everything the run command reads from flags, env and the options file.
type runOptions struct {
	Seed              int64
	Days              int
	World             string // preset name
	WorldConfig       string // YAML path; overrides World
	SettingsConfig    string
	Regulations       string // preset name
	RegulationsConfig string // YAML path; overrides Regulations
	StageSchedule     string // "day:stage,..."
	ContactTracer     bool
	TraceLevel        string
	DBPath            string
	Progress          bool
}

func optionsFromViper() runOptions {
	return runOptions{
		Seed:              viper.GetInt64("seed"),
		Days:              viper.GetInt("days"),
		World:             viper.GetString("world"),
		WorldConfig:       viper.GetString("world-config"),
		SettingsConfig:    viper.GetString("settings-config"),
		Regulations:       viper.GetString("regulations"),
		RegulationsConfig: viper.GetString("regulations-config"),
		StageSchedule:     viper.GetString("stage-schedule"),
		ContactTracer:     viper.GetBool("contact-tracer"),
		TraceLevel:        viper.GetString("trace-level"),
		DBPath:            viper.GetString("db"),
		Progress:          viper.GetBool("progress"),
	}
}

// stageChange switches to Stage at the start of Day.
type stageChange struct {
	Day   int
	Stage int
}

// parseStageSchedule reads "0:0,10:2,30:1". The result is sorted by day and
// always starts at day 0.
func parseStageSchedule(s string) ([]stageChange, error) {
	var out []stageChange
	seen := map[int]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, stage, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("stage schedule entry %q: want day:stage", part)
		}
		d, err := strconv.Atoi(strings.TrimSpace(day))
		if err != nil || d < 0 {
			return nil, fmt.Errorf("stage schedule entry %q: bad day", part)
		}
		st, err := strconv.Atoi(strings.TrimSpace(stage))
		if err != nil || st < 0 {
			return nil, fmt.Errorf("stage schedule entry %q: bad stage", part)
		}
		if seen[d] {
			return nil, fmt.Errorf("stage schedule: day %d listed twice", d)
		}
		seen[d] = true
		out = append(out, stageChange{Day: d, Stage: st})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	if len(out) == 0 || out[0].Day != 0 {
		out = append([]stageChange{{Day: 0, Stage: 0}}, out...)
	}
	return out, nil
}

func stageOnDay(schedule []stageChange, day int) int {
	stage := schedule[0].Stage
	for _, c := range schedule {
		if c.Day > day {
			break
		}
		stage = c.Stage
	}
	return stage
}

func loadWorld(opts runOptions) (*sim.SimulationConfig, error) {
	if opts.WorldConfig != "" {
		return sim.LoadSimulationConfig(opts.WorldConfig)
	}
	preset, ok := sim.WorldPresets[opts.World]
	if !ok {
		return nil, fmt.Errorf("unknown world preset %q; valid: %v", opts.World, worldPresetNames())
	}
	return preset(), nil
}

func loadRegulations(opts runOptions) (*sim.RegulationBundle, error) {
	if opts.RegulationsConfig != "" {
		return sim.LoadRegulationBundle(opts.RegulationsConfig)
	}
	preset, ok := sim.RegulationPresets[opts.Regulations]
	if !ok {
		return nil, fmt.Errorf("unknown regulation preset %q; valid: %v", opts.Regulations, sim.RegulationPresetNames())
	}
	return preset(), nil
}

func loadSettings(opts runOptions) (sim.SimulationSettings, error) {
	settings := sim.DefaultSimulationSettings()
	if opts.SettingsConfig != "" {
		loaded, err := sim.LoadSimulationSettings(opts.SettingsConfig)
		if err != nil {
			return settings, err
		}
		settings = loaded
	}
	if opts.ContactTracer {
		settings.UseContactTracer = true
	}
	settings.SimStepsPerRegulation = sim.HoursPerDay
	return settings, nil
}

// runReport is what a finished run hands to the printer.
type runReport struct {
	Days     int
	Persons  int
	Episode  *recorder.Episode
	Trace    *trace.TraceSummary
	Rewards  float64
	Done     bool
	Elapsed  time.Duration
	Recorded string
}

// runSimulation builds the world, applies the stage schedule one day at a
// time and returns the recorded history.
func runSimulation(opts runOptions, progress io.Writer) (*runReport, error) {
	if opts.Days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", opts.Days)
	}
	if !trace.IsValidTraceLevel(opts.TraceLevel) {
		return nil, fmt.Errorf("unknown trace level %q", opts.TraceLevel)
	}
	schedule, err := parseStageSchedule(opts.StageSchedule)
	if err != nil {
		return nil, err
	}
	world, err := loadWorld(opts)
	if err != nil {
		return nil, err
	}
	settings, err := loadSettings(opts)
	if err != nil {
		return nil, err
	}
	bundle, err := loadRegulations(opts)
	if err != nil {
		return nil, err
	}
	for _, c := range schedule {
		if _, ok := bundle.Stage(c.Stage); !ok {
			return nil, fmt.Errorf("stage schedule uses stage %d; bundle has %v", c.Stage, bundle.Stages())
		}
	}

	start := time.Now()
	tr := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(opts.TraceLevel)})
	e, err := env.FromConfig(opts.Seed, world, settings, bundle, tr)
	if err != nil {
		return nil, err
	}

	mem := &recorder.Memory{}
	consumers := recorder.Multi{mem}
	if opts.DBPath != "" {
		db, err := recorder.OpenSQLite(opts.DBPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		consumers = append(consumers, db)
	}
	e.SetConsumer(consumers)
	if _, err := e.Reset(); err != nil {
		return nil, err
	}

	var bar *progressbar.ProgressBar
	if progress != nil {
		bar = progressbar.NewOptions(opts.Days,
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("simulating days"),
			progressbar.OptionShowCount(),
		)
	}

	report := &runReport{Days: opts.Days, Persons: world.NumPersons, Recorded: opts.DBPath}
	for day := 0; day < opts.Days; day++ {
		action, _ := e.ActionOf(stageOnDay(schedule, day))
		_, reward, done, err := e.Step(action)
		if err != nil {
			return nil, err
		}
		report.Rewards += reward
		if bar != nil {
			_ = bar.Add(1)
		}
		if done {
			report.Done = true
			break
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if err := consumers.Finalize(); err != nil {
		return nil, err
	}

	report.Episode = mem.Episodes()[len(mem.Episodes())-1]
	report.Trace = trace.Summarize(tr)
	report.Elapsed = time.Since(start)
	return report, nil
}

// runCmd executes a simulation using options from flags, env and the options file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pandemic simulation",
	Run: func(cmd *cobra.Command, args []string) {
		opts := optionsFromViper()
		logrus.Infof("starting simulation: seed=%d days=%d world=%s regulations=%s schedule=%q",
			opts.Seed, opts.Days, opts.World, opts.Regulations, opts.StageSchedule)

		var progress io.Writer
		if opts.Progress {
			progress = os.Stderr
		}
		report, err := runSimulation(opts, progress)
		if err != nil {
			logrus.Fatalf("simulation failed: %v", err)
		}
		printReport(os.Stdout, report)
		logrus.Info("Simulation complete.")
	},
}

func init() {
	f := runCmd.Flags()
	f.Int64("seed", 42, "Seed for every random stream")
	f.Int("days", 60, "Number of simulated days")
	f.String("world", "tiny", "World preset ("+strings.Join(worldPresetNames(), ", ")+")")
	f.String("world-config", "", "World config YAML; overrides --world")
	f.String("settings-config", "", "Simulation settings YAML")
	f.String("regulations", "staged", "Regulation preset ("+strings.Join(sim.RegulationPresetNames(), ", ")+")")
	f.String("regulations-config", "", "Regulation bundle YAML; overrides --regulations")
	f.String("stage-schedule", "0:0", "Comma-separated day:stage switches, e.g. 0:0,10:3,40:1")
	f.Bool("contact-tracer", false, "Enable contact tracing (quarantine of traced contacts)")
	f.String("trace-level", string(trace.TraceLevelNone), "Entry decision trace level (none, decisions, entries)")
	f.String("db", "", "Record every hour into this SQLite file")
	f.Bool("progress", true, "Show a progress bar on stderr")
	_ = viper.BindPFlags(f)
}
