package app

import (
	"fmt"

	"fyne.io/fyne/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"yashubustudio/healthpredictor/predictor"
)

// AppID is the fyne application identifier.
const AppID = "yashubustudio.healthpredictor"

// Run opens the predictor and shows the desktop window until it is closed.
// Log lines are mirrored into the window's log panel.
func Run(a fyne.App, cfg predictor.Config) error {
	base, err := predictor.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	sink := newLogSink(200)
	level, _ := zapcore.ParseLevel(cfg.LogLevel)
	panel := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey:     "msg",
			LevelKey:       "level",
			TimeKey:        "time",
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05"),
			EncodeDuration: zapcore.StringDurationEncoder,
		}),
		zapcore.AddSync(sink),
		level,
	)
	logger := zap.New(zapcore.NewTee(base.Core(), panel)).Named("desktop")
	defer logger.Sync()

	svc, err := predictor.Open(cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("open predictor: %w", err)
	}
	defer svc.Close()

	u := buildUI(a, svc, logger)
	sink.attach(u.appendLog)
	u.w.ShowAndRun()
	return nil
}
