package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/gousb"

	"github.com/behrlich/go-davis"
	"github.com/behrlich/go-davis/internal/logging"
)

func main() {
	var (
		vidStr  = flag.String("vid", "152A", "USB vendor ID, hex")
		pidStr  = flag.String("pid", "841D", "USB product ID, hex")
		serial  = flag.String("serial", "", "require this serial number")
		verbose = flag.Bool("v", false, "verbose output")
		runFor  = flag.Duration("duration", 0, "stop after this long (0 = run until Ctrl+C)")
	)
	flag.Parse()

	vid, err := parseHexID(*vidStr)
	if err != nil {
		log.Fatalf("invalid -vid %q: %v", *vidStr, err)
	}
	pid, err := parseHexID(*pidStr)
	if err != nil {
		log.Fatalf("invalid -pid %q: %v", *pidStr, err)
	}

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	dev, err := davis.Open(davis.OpenParams{VID: vid, PID: pid, SerialNumber: *serial}, logger)
	if err != nil {
		logger.Error("failed to open device", "error", err)
		os.Exit(1)
	}
	defer dev.Close()

	info := dev.Info()
	fmt.Printf("opened DAVIS device: chip=%d dvs=%dx%d aps=%dx%d logic_rev=%d\n",
		info.ChipID, info.DVSSizeX, info.DVSSizeY, info.APSSizeX, info.APSSizeY, info.LogicRevision)

	if err := dev.Start(davis.DefaultStartParams()); err != nil {
		logger.Error("failed to start acquisition", "error", err)
		os.Exit(1)
	}
	logger.Info("acquisition started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if *runFor > 0 {
		go func() {
			time.Sleep(*runFor)
			cancel()
		}()
	}

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	var polarity, special, frames, imu6 uint64
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		default:
		}
		c, ok := dev.GetBlocking(ctx)
		if !ok {
			break
		}
		if c.Polarity != nil {
			polarity += uint64(c.Polarity.Len())
		}
		if c.Special != nil {
			special += uint64(c.Special.Len())
		}
		if c.Frame != nil {
			frames += uint64(c.Frame.Len())
		}
		if c.IMU6 != nil {
			imu6 += uint64(c.IMU6.Len())
		}
	}

	logger.Info("stopping acquisition")
	dev.Stop()

	snap := dev.MetricsSnapshot()
	fmt.Printf("consumed: polarity=%d special=%d frames=%d imu6=%d\n", polarity, special, frames, imu6)
	fmt.Printf("dropped:  polarity=%d special=%d frames=%d imu6=%d\n",
		snap.PolarityDropped, snap.SpecialDropped, snap.FramesDropped, snap.IMU6Dropped)
	fmt.Printf("queue depth: avg=%.2f max=%d\n", snap.AvgQueueDepth, snap.MaxQueueDepth)
}

func parseHexID(s string) (gousb.ID, error) {
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, err
	}
	return gousb.ID(v), nil
}
