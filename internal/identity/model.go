package identity

import (
	"fmt"
	"time"
)

// Region is a closed enumeration of operating regions. It is validated once at
// the system boundary and passed verbatim to the policy service.
type Region string

const (
	RegionUnspecified Region = "UNSPECIFIED"
	RegionIndia       Region = "INDIA"
	RegionEU          Region = "EU"
	RegionUS          Region = "US"
)

// ParseRegion validates a boundary-supplied region code.
func ParseRegion(code string) (Region, error) {
	switch Region(code) {
	case RegionUnspecified, RegionIndia, RegionEU, RegionUS:
		return Region(code), nil
	default:
		return "", fmt.Errorf("unsupported region %q", code)
	}
}

func (r Region) String() string {
	return string(r)
}

// KycStatus tracks the verification state of a user.
type KycStatus string

const (
	KycPending  KycStatus = "PENDING"
	KycVerified KycStatus = "VERIFIED"
	KycFailed   KycStatus = "FAILED"
)

// User represents a registered wallet owner.
type User struct {
	ID        string
	Email     string
	Name      string
	Region    Region
	KycStatus KycStatus
	Phone     string
	CreatedAt time.Time
}
