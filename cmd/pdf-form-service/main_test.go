package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/a3tai/pdf-form-filler/internal/api"
	"github.com/a3tai/pdf-form-filler/internal/config"
	"github.com/a3tai/pdf-form-filler/internal/mcp"
	"github.com/a3tai/pdf-form-filler/internal/pdf"
)

const testVersion = "1.2.3"

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	version = testVersion
	buildTime = "2023-12-01_10:30:00"
	gitCommit = "abc123"

	var buf bytes.Buffer
	printVersion(&buf)
	output := buf.String()

	expectedStrings := []string{
		"PDF Form Filler",
		"Version: " + testVersion,
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	}

	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    *config.Config
		wantLevel logrus.Level
		wantJSON  bool
		toStderr  bool
	}{
		{
			name:      "http mode logs json to stdout",
			config:    &config.Config{Mode: config.ModeHTTP, LogLevel: "info"},
			wantLevel: logrus.InfoLevel,
			wantJSON:  true,
		},
		{
			name:      "stdio mode logs text to stderr",
			config:    &config.Config{Mode: config.ModeStdio, LogLevel: "debug"},
			wantLevel: logrus.DebugLevel,
			toStderr:  true,
		},
		{
			name:      "invalid level falls back to info",
			config:    &config.Config{Mode: config.ModeHTTP, LogLevel: "loud"},
			wantLevel: logrus.InfoLevel,
			wantJSON:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			logger := newLogger(tt.config, &stdout, &stderr)

			if logger.GetLevel() != tt.wantLevel {
				t.Errorf("level = %v, want %v", logger.GetLevel(), tt.wantLevel)
			}

			logger.Info("hello")

			out := stdout.String()
			if tt.toStderr {
				out = stderr.String()
				if stdout.Len() != 0 {
					t.Errorf("stdio mode wrote to stdout: %q", stdout.String())
				}
			}
			if !strings.Contains(out, "hello") {
				t.Errorf("log output missing message: %q", out)
			}
			if tt.wantJSON != strings.HasPrefix(strings.TrimSpace(out), "{") {
				t.Errorf("unexpected log format: %q", out)
			}
		})
	}
}

func TestNewRunner(t *testing.T) {
	logger := logrus.New()
	service := pdf.NewService(1024, nil)

	cfg := config.DefaultConfig()
	r, err := newRunner(cfg, service, logger)
	if err != nil {
		t.Fatalf("newRunner() error = %v", err)
	}
	if _, ok := r.(*api.Server); !ok {
		t.Errorf("http mode runner = %T, want *api.Server", r)
	}

	cfg.Mode = config.ModeStdio
	r, err = newRunner(cfg, service, logger)
	if err != nil {
		t.Fatalf("newRunner() error = %v", err)
	}
	if _, ok := r.(*mcp.Server); !ok {
		t.Errorf("stdio mode runner = %T, want *mcp.Server", r)
	}
}

type fakeRunner struct {
	err error
}

func (f fakeRunner) Run(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return nil
}

func TestRun(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	bindErr := errors.New("failed to listen on 0.0.0.0:80: address already in use")
	if err := run(context.Background(), fakeRunner{err: bindErr}, logger); !errors.Is(err, bindErr) {
		t.Errorf("run() error = %v, want %v", err, bindErr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, fakeRunner{}, logger)
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run() did not return after cancellation")
	}
}
