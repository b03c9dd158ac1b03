package domain

import "fmt"

// VolumeAttribution decides how a transaction's trade value is credited to
// the wallets it touched.
type VolumeAttribution string

const (
	// AttributionPerParticipantFull credits the whole trade value to every
	// touched wallet. Aggregate volume is inflated by the participant count.
	AttributionPerParticipantFull VolumeAttribution = "PER_PARTICIPANT_FULL"
	// AttributionSplitEvenly divides the trade value across touched wallets.
	AttributionSplitEvenly VolumeAttribution = "SPLIT_EVENLY"
	// AttributionSenderOnly credits the trade value only to wallets whose
	// token balance decreased.
	AttributionSenderOnly VolumeAttribution = "SENDER_ONLY"
)

// String returns the string representation of VolumeAttribution.
func (a VolumeAttribution) String() string {
	return string(a)
}

// IsValid checks if the attribution is a known policy.
func (a VolumeAttribution) IsValid() bool {
	switch a {
	case AttributionPerParticipantFull, AttributionSplitEvenly, AttributionSenderOnly:
		return true
	}
	return false
}

// ParseVolumeAttribution parses a policy name. Empty input yields the default.
func ParseVolumeAttribution(s string) (VolumeAttribution, error) {
	if s == "" {
		return AttributionPerParticipantFull, nil
	}
	a := VolumeAttribution(s)
	if !a.IsValid() {
		return "", fmt.Errorf("unknown volume attribution %q", s)
	}
	return a, nil
}
