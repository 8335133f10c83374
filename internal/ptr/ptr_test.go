package ptr_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/fitcoach/internal/adaptive"
	"github.com/myrjola/fitcoach/internal/ptr"
)

func TestRef(t *testing.T) {
	rating := 4
	p := ptr.Ref(rating)
	rating = 5
	if *p != 4 {
		t.Errorf("*Ref(rating) = %d after reassigning rating, want 4", *p)
	}

	feedback := ptr.Ref(adaptive.FeedbackWayTooHard)
	if diff := cmp.Diff(adaptive.FeedbackWayTooHard, *feedback); diff != "" {
		t.Errorf("feedback mismatch (-want +got):\n%s", diff)
	}

	if ptr.Ref(1) == ptr.Ref(1) {
		t.Error("Ref returned the same pointer for two calls")
	}
}
