package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"thermovox.sim/internal/host"
	"thermovox.sim/internal/persistence/indexdb"
	persistlog "thermovox.sim/internal/persistence/log"
	"thermovox.sim/internal/persistence/snapshot"
	"thermovox.sim/internal/sim/materials"
	"thermovox.sim/internal/sim/tuning"
	"thermovox.sim/internal/sim/water"
	"thermovox.sim/internal/sim/world"
	"thermovox.sim/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		seed       = flag.Int64("seed", 1337, "terrain seed (used only when starting fresh)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite snapshot/metrics index")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	materials.MustValidate()

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}
	if tune.SnapshotEveryTicks <= 0 {
		tune.SnapshotEveryTicks = 18000
	}
	if tune.MetricsEveryTicks <= 0 {
		tune.MetricsEveryTicks = 60
	}
	if tune.Seed != 0 {
		*seed = tune.Seed
	}

	_ = os.MkdirAll(*dataDir, 0o755)

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index.sqlite"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
	}

	metricsLog := persistlog.NewMetricsLogger(*dataDir)
	defer metricsLog.Close()

	hostCfg := host.Config{
		Seed:              *seed,
		MetricsEveryTicks: tune.MetricsEveryTicks,
		World:             tune.WorldConfig(),
		Water:             tune.WaterConfig(),
		MetricsSink: func(m world.MetricsSnapshot) {
			if err := metricsLog.WriteMetrics(m); err != nil {
				logger.Printf("metrics log: %v", err)
			}
			if idx != nil {
				_ = idx.WriteMetrics(m)
			}
		},
	}

	// Fresh start or snapshot resume.
	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(*dataDir)
	}

	var h *host.Host
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		hostCfg.Seed = snap.Seed
		hostCfg.World = snap.World
		w, s, err := snapshot.Restore(snap, hostCfg.Water)
		if err != nil {
			logger.Fatalf("restore snapshot: %v", err)
		}
		h = host.NewFromState(hostCfg, w, s, logger)
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), snap.Header.Tick)
	} else {
		h, err = host.New(hostCfg, logger)
		if err != nil {
			logger.Fatalf("host: %v", err)
		}
		logger.Printf("fresh world, seed=%d", *seed)
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := h.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("host stopped: %v", err)
		}
	}()

	// Periodic snapshots, taken through the loop barrier.
	go func() {
		stepSec := hostCfg.World.FixedStepSeconds
		if stepSec <= 0 {
			stepSec = 0.016
		}
		interval := time.Duration(float64(tune.SnapshotEveryTicks) * stepSec * float64(time.Second))
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var snap snapshot.SnapshotV1
				h.Sync(func(w *world.World, s *water.State) {
					snap = snapshot.Capture(w, s, hostCfg.Seed)
				})
				path := filepath.Join(*dataDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
				logger.Printf("snapshot tick=%d chunks=%d", snap.Header.Tick, len(snap.Chunks))
			}
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		var m world.MetricsSnapshot
		var waterSum uint32
		h.Sync(func(w *world.World, s *water.State) {
			m = w.Metrics()
			waterSum = s.Checksum()
		})

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP thermovox_tick Current simulation tick.\n")
		fmt.Fprintf(rw, "# TYPE thermovox_tick gauge\n")
		fmt.Fprintf(rw, "thermovox_tick %d\n", m.Tick)

		fmt.Fprintf(rw, "# HELP thermovox_chunks Allocated chunk count.\n")
		fmt.Fprintf(rw, "# TYPE thermovox_chunks gauge\n")
		fmt.Fprintf(rw, "thermovox_chunks %d\n", m.Chunks)

		fmt.Fprintf(rw, "# HELP thermovox_active_chunks Chunks with pending work.\n")
		fmt.Fprintf(rw, "# TYPE thermovox_active_chunks gauge\n")
		fmt.Fprintf(rw, "thermovox_active_chunks %d\n", m.ActiveChunks)

		fmt.Fprintf(rw, "# HELP thermovox_stable_chunks Chunks in thermal equilibrium.\n")
		fmt.Fprintf(rw, "# TYPE thermovox_stable_chunks gauge\n")
		fmt.Fprintf(rw, "thermovox_stable_chunks %d\n", m.StableChunks)

		fmt.Fprintf(rw, "# HELP thermovox_step_ms Mean physics step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE thermovox_step_ms gauge\n")
		fmt.Fprintf(rw, "thermovox_step_ms %.3f\n", m.StepMS)

		fmt.Fprintf(rw, "# HELP thermovox_water_checksum CRC-32 of the water grid.\n")
		fmt.Fprintf(rw, "# TYPE thermovox_water_checksum gauge\n")
		fmt.Fprintf(rw, "thermovox_water_checksum %d\n", waterSum)
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(h, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(dataDir string) string {
	dir := filepath.Join(dataDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}
