package tracking

import (
	"fmt"
	"image/color"
	"testing"

	"github.com/Garsondee/tactical-overlays/internal/host"
)

func worldWithTokens(n int) *host.World {
	w := host.NewWorld()
	w.AddUser(host.NewUser("gm", "GM", true, color.RGBA{}))
	for i := 0; i < n; i++ {
		w.AddToken(host.NewToken(fmt.Sprintf("t%d", i), "Token", 0, 0, 50))
	}
	return w
}

func TestTracker_StableAndPersisted(t *testing.T) {
	w := worldWithTokens(1)
	tr := NewTracker(w, 1, nil)

	first := tr.Number("t0")
	if !Valid(first) {
		t.Fatalf("invalid number %q", first)
	}
	if again := tr.Number("t0"); again != first {
		t.Fatalf("number changed: %s then %s", first, again)
	}
	if v, ok := w.Flag("t0", FlagScope, FlagKey); !ok || v != first {
		t.Fatalf("flag = %q, %v", v, ok)
	}

	// A fresh tracker (e.g. after reload) reads the persisted value.
	if got := NewTracker(w, 99, nil).Number("t0"); got != first {
		t.Fatalf("reloaded number = %s, want %s", got, first)
	}
}

func TestTracker_Unique(t *testing.T) {
	w := worldWithTokens(300)
	tr := NewTracker(w, 7, nil)
	seen := map[string]string{}
	for i := 0; i < 300; i++ {
		id := fmt.Sprintf("t%d", i)
		n := tr.Number(id)
		if prev, ok := seen[n]; ok {
			t.Fatalf("%s and %s share %s", prev, id, n)
		}
		seen[n] = id
	}
}

func TestTracker_LoadReservesPersisted(t *testing.T) {
	w := worldWithTokens(2)
	if err := w.SetFlag("t0", FlagScope, FlagKey, "042"); err != nil {
		t.Fatal(err)
	}
	tr := NewTracker(w, 3, nil)
	tr.Load(w.Tokens())
	if tr.Assigned() != 1 {
		t.Fatalf("assigned = %d", tr.Assigned())
	}
	if tr.Number("t0") != "042" || tr.Number("t1") == "042" {
		t.Fatal("persisted number must be kept and not reissued")
	}
}

func TestTracker_ForgetReleases(t *testing.T) {
	w := worldWithTokens(1)
	tr := NewTracker(w, 5, nil)
	tr.Number("t0")
	tr.Forget("t0")
	if tr.Assigned() != 0 {
		t.Fatalf("assigned = %d after forget", tr.Assigned())
	}
}

func TestTracker_UnknownTokenStillNumbered(t *testing.T) {
	w := worldWithTokens(0)
	tr := NewTracker(w, 5, nil)
	if n := tr.Number("ghost"); !Valid(n) {
		t.Fatalf("got %q", n)
	}
}

func TestFormatAndValid(t *testing.T) {
	if Format(7) != "007" || Format(42) != "042" {
		t.Fatal("Format should zero-pad")
	}
	for _, s := range []string{"000", "1000", "12", "abc", ""} {
		if Valid(s) {
			t.Errorf("Valid(%q) = true", s)
		}
	}
	if !Valid("999") || !Valid("001") {
		t.Fatal("bounds should be valid")
	}
}
