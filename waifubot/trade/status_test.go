package trade

import "testing"

func TestCanTransition(t *testing.T) {
	all := []Status{StatusPending, StatusAccepted, StatusRejected, StatusCompleted, StatusCancelled}
	allowed := map[Status][]Status{
		StatusPending:  {StatusAccepted, StatusRejected, StatusCancelled},
		StatusAccepted: {StatusCompleted, StatusCancelled},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
		if from.Terminal() != (len(allowed[from]) == 0) {
			t.Errorf("%s.Terminal() = %v", from, from.Terminal())
		}
	}
}
