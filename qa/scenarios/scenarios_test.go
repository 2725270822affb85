package scenarios

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no scenarios found")
	}
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("no-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	tmp, err := os.CreateTemp(t.TempDir(), "bad*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmp.WriteString(":"); err != nil {
		t.Fatal(err)
	}
	if err := tmp.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmp.Name()); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestSampleDefToModel(t *testing.T) {
	loc := time.FixedZone("IST", 19800)
	s, err := SampleDef{Vehicle: "EV-1", At: "2025-03-14 06:00:00", Battery: 90, KM: 12}.ToModel(loc)
	if err != nil {
		t.Fatalf("to model: %v", err)
	}
	if !s.Timestamp.Equal(time.Date(2025, 3, 14, 6, 0, 0, 0, loc)) {
		t.Fatalf("unexpected timestamp %v", s.Timestamp)
	}
	if _, err := (SampleDef{At: "06:00"}).ToModel(loc); err == nil {
		t.Fatal("expected parse error")
	}
}
