package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/zlearn/internal/analytics"
	"github.com/example/zlearn/internal/backup"
	"github.com/example/zlearn/internal/config"
	"github.com/example/zlearn/internal/database"
	"github.com/example/zlearn/internal/excel"
	"github.com/example/zlearn/internal/logger"
	"github.com/example/zlearn/internal/scheduler"
)

const usage = `usage: zlearn <command> [flags]

commands:
  daemon          run the maintenance daemon (default)
  report          print a learning report for a user
  prune           delete analytics events past the retention window
  export-courses  write courses to a backup document
  import-courses  merge a course backup document
  export-state    write the full state to a backup document
  import-state    merge a full-state backup document
  import-excel    build a course from an Excel or CSV spreadsheet
`

// app holds everything the subcommands share.
type app struct {
	store    *config.Store
	events   *database.EventRepository
	tracker  *analytics.Tracker
	engine   *analytics.Engine
	pipeline *backup.Pipeline
	log      *zap.SugaredLogger
}

func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	log, err := logger.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dataDir := os.Getenv("ZLEARN_DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	db, err := database.Connect(dataDir)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	eventRepo := database.NewEventRepository(db)
	progressRepo := database.NewProgressRepository(db)
	sessionRepo := database.NewSessionRepository(db)
	courseRepo := database.NewCourseRepository(db)
	overrideRepo := database.NewOverrideRepository(db)

	store, err := config.NewStore(ctx, config.Default(), overrideRepo, courseRepo, log)
	if err != nil {
		log.Fatalw("failed to build config store", "error", err)
	}

	a := &app{
		store:    store,
		events:   eventRepo,
		tracker:  analytics.NewTracker(eventRepo, log),
		engine:   analytics.NewEngine(eventRepo),
		pipeline: backup.NewPipeline(store, eventRepo, progressRepo, sessionRepo, log),
		log:      log,
	}

	command := "daemon"
	args := os.Args[1:]
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "daemon":
		err = runDaemon(a)
	case "report":
		err = runReport(ctx, a, args)
	case "prune":
		err = runPrune(ctx, a)
	case "export-courses":
		err = runExportCourses(a, args)
	case "import-courses":
		err = runImportCourses(ctx, a, args)
	case "export-state":
		err = runExportState(ctx, a, args)
	case "import-state":
		err = runImportState(ctx, a, args)
	case "import-excel":
		err = runImportExcel(ctx, a, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalw("command failed", "command", command, "error", err)
	}
}

// runDaemon keeps the scheduler running until SIGINT/SIGTERM, then flushes
// any buffered analytics events before exiting.
func runDaemon(a *app) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sched := scheduler.New(a.events, a.tracker, a.store, a.log)
	sched.Start()
	a.log.Infow("daemon started", "dbType", database.DBType())

	sig := <-sigChan
	a.log.Infow("shutting down", "signal", sig.String())
	sched.Stop()
	a.tracker.Flush(context.Background())
	return nil
}

func runReport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	user := fs.String("user", "", "user id to report on")
	fs.Parse(args)
	if *user == "" {
		return fmt.Errorf("report requires -user")
	}

	report, err := a.engine.Report(ctx, *user)
	if err != nil {
		return err
	}
	fmt.Println(report)
	return nil
}

func runPrune(ctx context.Context, a *app) error {
	sched := scheduler.New(a.events, a.tracker, a.store, a.log)
	deleted, err := sched.RunPruneNow(ctx)
	if err != nil {
		return err
	}
	a.log.Infow("pruned analytics events", "deleted", deleted)
	return nil
}

func runExportCourses(a *app, args []string) error {
	fs := flag.NewFlagSet("export-courses", flag.ExitOnError)
	out := fs.String("out", "courses.json", "output file")
	ids := fs.String("ids", "", "comma-separated course ids; empty exports all")
	fs.Parse(args)

	var courseIDs []string
	if *ids != "" {
		courseIDs = strings.Split(*ids, ",")
	}
	data, err := a.pipeline.ExportCourses(courseIDs)
	if err != nil {
		return err
	}
	return os.WriteFile(*out, data, 0644)
}

func runImportCourses(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("import-courses", flag.ExitOnError)
	in := fs.String("in", "", "backup document to import")
	override := fs.Bool("override", false, "overwrite courses with colliding ids instead of renaming")
	fs.Parse(args)
	if *in == "" {
		return fmt.Errorf("import-courses requires -in")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	report, err := a.pipeline.ImportCourses(ctx, data, *override)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d course(s)\n", report.Imported)
	for _, rename := range report.Renamed {
		fmt.Printf("renamed %s -> %s\n", rename.From, rename.To)
	}
	return nil
}

func runExportState(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export-state", flag.ExitOnError)
	out := fs.String("out", "state.json", "output file")
	fs.Parse(args)

	data, err := a.pipeline.ExportState(ctx)
	if err != nil {
		return err
	}
	return os.WriteFile(*out, data, 0644)
}

func runImportState(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("import-state", flag.ExitOnError)
	in := fs.String("in", "", "backup document to import")
	fs.Parse(args)
	if *in == "" {
		return fmt.Errorf("import-state requires -in")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	return a.pipeline.ImportState(ctx, data)
}

func runImportExcel(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("import-excel", flag.ExitOnError)
	file := fs.String("file", "", "spreadsheet to import")
	id := fs.String("id", "", "course id; derived from the name when empty")
	name := fs.String("name", "", "course name; derived from the file when empty")
	sheet := fs.String("sheet", "", "sheet name for Excel files")
	fs.Parse(args)
	if *file == "" {
		return fmt.Errorf("import-excel requires -file")
	}

	cfg := excel.DefaultImportConfig()
	cfg.FilePath = *file
	cfg.CourseID = *id
	cfg.CourseName = *name
	if *sheet != "" {
		cfg.SheetName = *sheet
	}

	course, result, err := excel.ImportCourse(cfg)
	if err != nil {
		return err
	}
	for _, importErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "%s\n", importErr)
	}
	if course == nil {
		return fmt.Errorf("no levels imported from %s", *file)
	}
	if err := a.store.SaveCustomCourse(ctx, course); err != nil {
		return err
	}
	fmt.Printf("imported course %s with %d level(s) across %d map(s)\n",
		course.ID, result.LevelsCreated, result.MapsCreated)
	return nil
}
