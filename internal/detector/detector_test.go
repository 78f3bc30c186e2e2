package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func fullPoints() []Point3D {
	points := make([]Point3D, NumLandmarks)
	for i := range points {
		points[i] = Point3D{X: float64(i) / 100, Y: 1 - float64(i)/100, Z: -0.01}
	}
	return points
}

func TestNewHand(t *testing.T) {
	t.Run("copies points in anatomical order", func(t *testing.T) {
		points := fullPoints()

		hand, err := NewHand(points, "Right", 0.8)
		if err != nil {
			t.Fatalf("NewHand() error = %v", err)
		}

		if hand.Handedness != HandRight {
			t.Errorf("handedness = %s, want Right", hand.Handedness)
		}
		if hand.Score != 0.8 {
			t.Errorf("score = %f, want 0.8", hand.Score)
		}
		if hand.Points[IndexTip] != points[8] {
			t.Errorf("index tip = %+v, want %+v", hand.Points[IndexTip], points[8])
		}

		// The hand must not alias the caller's slice
		points[Wrist].X = 42
		if hand.Points[Wrist].X == 42 {
			t.Error("hand shares memory with input slice")
		}
	})

	t.Run("rejects wrong point counts", func(t *testing.T) {
		for _, n := range []int{0, 1, 20, 22} {
			_, err := NewHand(make([]Point3D, n), "Left", 0.9)
			if !errors.Is(err, ErrMalformedLandmarks) {
				t.Errorf("%d points: error = %v, want ErrMalformedLandmarks", n, err)
			}
		}
	})

	t.Run("rejects missing handedness", func(t *testing.T) {
		for _, label := range []string{"", "Both", "unknown"} {
			_, err := NewHand(fullPoints(), label, 0.9)
			if !errors.Is(err, ErrMissingHandedness) {
				t.Errorf("handedness %q: error = %v, want ErrMissingHandedness", label, err)
			}
		}
	})

	t.Run("malformed is not missing handedness", func(t *testing.T) {
		_, err := NewHand(make([]Point3D, 5), "Right", 0.9)
		if errors.Is(err, ErrMissingHandedness) {
			t.Error("short point list reported as missing handedness")
		}
	})
}

func TestHand_Validate(t *testing.T) {
	var nilHand *Hand
	if err := nilHand.Validate(); !errors.Is(err, ErrMalformedLandmarks) {
		t.Errorf("nil hand: error = %v, want ErrMalformedLandmarks", err)
	}

	hand := FingerUpLandmarks()
	if err := hand.Validate(); err != nil {
		t.Errorf("preset hand: unexpected error %v", err)
	}

	hand.Handedness = HandUnknown
	if err := hand.Validate(); !errors.Is(err, ErrMissingHandedness) {
		t.Errorf("unknown handedness: error = %v, want ErrMissingHandedness", err)
	}
}

func TestHandedness_Text(t *testing.T) {
	tests := []struct {
		in      string
		want    Handedness
		wantErr bool
	}{
		{"Left", HandLeft, false},
		{"Right", HandRight, false},
		{"left", HandLeft, false},
		{"", HandUnknown, true},
		{"Up", HandUnknown, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("parse %q", tt.in), func(t *testing.T) {
			var h Handedness
			err := h.UnmarshalText([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
			}
			if h != tt.want {
				t.Errorf("got %s, want %s", h, tt.want)
			}
		})
	}

	data, err := json.Marshal(struct {
		H Handedness `json:"h"`
	}{HandLeft})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"h":"Left"}` {
		t.Errorf("Marshal() = %s", data)
	}
}

func TestHand_Mirrored(t *testing.T) {
	hand := FingerUpLandmarks()
	mirrored := hand.Mirrored()

	if mirrored.Handedness != hand.Handedness {
		t.Error("mirroring must not change the handedness label")
	}
	for i := range hand.Points {
		if got, want := mirrored.Points[i].X, 1-hand.Points[i].X; got != want {
			t.Errorf("point %d X = %f, want %f", i, got, want)
		}
		if mirrored.Points[i].Y != hand.Points[i].Y {
			t.Errorf("point %d Y changed", i)
		}
	}
}

func TestDecodeResponse(t *testing.T) {
	encodeHand := func(n int, handedness string) string {
		pts := make([]string, n)
		for i := range pts {
			pts[i] = `{"x":0.5,"y":0.5,"z":0}`
		}
		return fmt.Sprintf(`{"points":[%s],"handedness":%q,"score":0.9}`, strings.Join(pts, ","), handedness)
	}

	t.Run("no hands", func(t *testing.T) {
		hands, err := decodeResponse([]byte(`{"hands":[]}` + "\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}
	})

	t.Run("two hands", func(t *testing.T) {
		line := fmt.Sprintf(`{"hands":[%s,%s]}`, encodeHand(21, "Left"), encodeHand(21, "Right"))
		hands, err := decodeResponse([]byte(line))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Fatalf("expected 2 hands, got %d", len(hands))
		}
		if hands[0].Handedness != HandLeft || hands[1].Handedness != HandRight {
			t.Errorf("handedness = %s,%s", hands[0].Handedness, hands[1].Handedness)
		}
	})

	t.Run("truncated hand fails the frame", func(t *testing.T) {
		line := fmt.Sprintf(`{"hands":[%s]}`, encodeHand(17, "Left"))
		_, err := decodeResponse([]byte(line))
		if !errors.Is(err, ErrMalformedLandmarks) {
			t.Errorf("error = %v, want ErrMalformedLandmarks", err)
		}
	})

	t.Run("missing handedness fails the frame", func(t *testing.T) {
		line := fmt.Sprintf(`{"hands":[%s]}`, encodeHand(21, ""))
		_, err := decodeResponse([]byte(line))
		if !errors.Is(err, ErrMissingHandedness) {
			t.Errorf("error = %v, want ErrMissingHandedness", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := decodeResponse([]byte("{not json")); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestMediaPipeDetector_ScriptArgs(t *testing.T) {
	d := &MediaPipeDetector{
		config:     Config{MaxHands: 1, MinDetectionConf: 0.7, MinTrackingConf: 0.25},
		scriptPath: "/opt/mimic/mediapipe_service.py",
	}

	got := strings.Join(d.scriptArgs(), " ")
	want := "/opt/mimic/mediapipe_service.py --max-hands 1 --min-detection-confidence 0.7 --min-tracking-confidence 0.25"
	if got != want {
		t.Errorf("scriptArgs() = %q, want %q", got, want)
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]Hand{FingerUpLandmarks(), HandChestLandmarks()})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
		if mock.Calls() != 1 {
			t.Errorf("Calls() = %d, want 1", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestPresets_FingerGeometry(t *testing.T) {
	type finger struct {
		name     string
		tip, pip int
	}
	fingers := []finger{
		{"index", IndexTip, IndexPIP},
		{"middle", MiddleTip, MiddlePIP},
		{"ring", RingTip, RingPIP},
		{"pinky", PinkyTip, PinkyPIP},
	}

	tests := []struct {
		name   string
		hand   Hand
		raised map[string]bool
	}{
		{"finger up", FingerUpLandmarks(), map[string]bool{"index": true}},
		{"finger mouth", FingerMouthLandmarks(), map[string]bool{"index": true}},
		{"hand chest", HandChestLandmarks(), map[string]bool{"index": true, "middle": true, "ring": true, "pinky": true}},
		{"fist", FistLandmarks(), map[string]bool{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.hand.Validate(); err != nil {
				t.Fatalf("preset invalid: %v", err)
			}
			for _, f := range fingers {
				up := tt.hand.Points[f.tip].Y < tt.hand.Points[f.pip].Y
				if up != tt.raised[f.name] {
					t.Errorf("%s raised = %v, want %v", f.name, up, tt.raised[f.name])
				}
			}
		})
	}
}
