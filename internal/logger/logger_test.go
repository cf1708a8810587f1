package logger

import "testing"

func TestNewProductionLogger(t *testing.T) {
	logger, err := New("production")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if logger == nil {
		t.Fatal("Logger should not be nil")
	}
}

func TestNewDevelopmentLogger(t *testing.T) {
	logger, err := New("development")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("development logger sanity check")
}
