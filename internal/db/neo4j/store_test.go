package neo4j

import (
	"context"
	"testing"
	"time"
)

func TestNewStore_RequiresURI(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty uri")
	}
}

func TestNewStore_DefaultDatabase(t *testing.T) {
	s, err := NewStore(Config{URI: "bolt://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()
	if s.database != DefaultDatabase {
		t.Errorf("database = %q, want %q", s.database, DefaultDatabase)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	s, err := NewStore(Config{URI: "bolt://127.0.0.1:1", Database: "graph"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if err := s.WaitForReady(context.Background(), 300*time.Millisecond); err == nil {
		t.Fatal("expected timeout against a closed port")
	}
}
