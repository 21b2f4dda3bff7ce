package cli

import (
	"testing"

	"github.com/nullbyte-labs/proxyharvest/harvest"
)

func TestClassificationLabel(t *testing.T) {
	tests := []struct {
		name string
		rec  *harvest.SubscriptionRecord
		want string
	}{
		{
			name: "failed GET",
			rec:  &harvest.SubscriptionRecord{FailReason: harvest.FailRequestFailed},
			want: "failed_request_failed",
		},
		{
			name: "quality-gate rejection",
			rec:  &harvest.SubscriptionRecord{RejectWhy: harvest.RejectEmpty},
			want: "rejected_empty_subscription",
		},
		{
			name: "clash classification",
			rec:  &harvest.SubscriptionRecord{Classes: map[harvest.SubscriptionClass]bool{harvest.ClassClash: true}},
			want: "clash",
		},
		{
			name: "clash takes priority over airport",
			rec: &harvest.SubscriptionRecord{Classes: map[harvest.SubscriptionClass]bool{
				harvest.ClassClash:   true,
				harvest.ClassAirport: true,
			}},
			want: "clash",
		},
		{
			name: "v2 classification",
			rec:  &harvest.SubscriptionRecord{Classes: map[harvest.SubscriptionClass]bool{harvest.ClassV2: true}},
			want: "v2",
		},
		{
			name: "unclassified",
			rec:  &harvest.SubscriptionRecord{Classes: map[harvest.SubscriptionClass]bool{}},
			want: "unclassified",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := classificationLabel(tc.rec); got != tc.want {
				t.Errorf("classificationLabel() = %q, want %q", got, tc.want)
			}
		})
	}
}
