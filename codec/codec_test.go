package codec

import (
	"encoding/json"
	"testing"

	"github.com/theoremus-urban-solutions/location-hub/geo"
)

func TestPositionKeyNames(t *testing.T) {
	for _, c := range []Codec{JSON, CBOR} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(geo.New(41.0, 29.0))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var generic map[string]any
			if err := c.Unmarshal(data, &generic); err != nil {
				t.Fatalf("unmarshal into map: %v", err)
			}
			if generic["latitude"] != 41.0 || generic["longitude"] != 29.0 {
				t.Errorf("expected latitude/longitude keys, got %v", generic)
			}
		})
	}
}

func TestMarkerSequenceOrder(t *testing.T) {
	in := []geo.Position{geo.New(3, 3), geo.New(1, 1), geo.New(2, 2)}
	for _, c := range []Codec{JSON, CBOR} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(in)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var out []geo.Position
			if err := c.Unmarshal(data, &out); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(out) != len(in) {
				t.Fatalf("expected %d markers, got %d", len(in), len(out))
			}
			for i := range in {
				if !out[i].Equal(in[i]) {
					t.Errorf("index %d: expected %v, got %v", i, in[i], out[i])
				}
			}
		})
	}
}

func TestJSONFieldOrderIrrelevant(t *testing.T) {
	var p geo.Position
	if err := JSON.Unmarshal([]byte(`{"longitude":29.1,"latitude":41.1}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !p.Equal(geo.New(41.1, 29.1)) {
		t.Errorf("expected (41.1, 29.1), got %v", p)
	}
	// written by an older client as an object with extra fields
	var q geo.Position
	raw, _ := json.Marshal(map[string]any{"latitude": 1.5, "longitude": 2.5, "note": "x"})
	if err := JSON.Unmarshal(raw, &q); err != nil || !q.Equal(geo.New(1.5, 2.5)) {
		t.Errorf("expected (1.5, 2.5), got %v err=%v", q, err)
	}
}

func TestByName(t *testing.T) {
	for name, want := range map[string]string{"": "json", "json": "json", "cbor": "cbor"} {
		c, err := ByName(name)
		if err != nil || c.Name() != want {
			t.Errorf("ByName(%q): expected %s, got %v err=%v", name, want, c, err)
		}
	}
	if _, err := ByName("xml"); err == nil {
		t.Error("unknown encoding should fail")
	}
}
