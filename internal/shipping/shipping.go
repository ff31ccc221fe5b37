package shipping

import (
	"context"

	"github.com/minhdn/cuestore/internal/domain"
)

// Supported shipping methods. Unknown methods fall back to standard service
// identifiers rather than failing, since the method string originates from
// client input that was already validated upstream.
const (
	MethodStandard = "ghn_standard"
	MethodExpress  = "ghn_express"
	MethodSaving   = "ghn_saving"
)

// Parcel defaults applied when a product declares no physical attributes.
const (
	DefaultItemWeightGrams = 500
	DefaultLengthCm        = 20
	DefaultWidthCm         = 15
	DefaultHeightCm        = 10
)

// RegionResolver maps a free-text address to carrier region codes.
// *region.Mapper is the production implementation.
type RegionResolver interface {
	Resolve(ctx context.Context, addr domain.Address) (*domain.RegionMapping, error)
}

// ServiceID returns the carrier service identifier for a shipping method.
func ServiceID(method string) int32 {
	switch method {
	case MethodExpress:
		return 53321
	case MethodSaving:
		return 53319
	default:
		return 53320
	}
}

// ServiceTypeID returns the carrier service-type identifier for a shipping
// method. Sent alongside ServiceID because the carrier API is inconsistent
// about which of the two it honors.
func ServiceTypeID(method string) int32 {
	switch method {
	case MethodExpress:
		return 2
	case MethodSaving:
		return 3
	default:
		return 1
	}
}

// EstimatedDelivery returns the customer-facing delivery window for a method.
func EstimatedDelivery(method string) string {
	switch method {
	case MethodExpress:
		return "1-2 ngày làm việc"
	case MethodStandard:
		return "2-3 ngày làm việc"
	case MethodSaving:
		return "3-5 ngày làm việc"
	default:
		return "2-5 ngày làm việc"
	}
}

// TotalWeightGrams sums line weights, substituting the default per-item
// weight for products that never declared one.
func TotalWeightGrams(lines []domain.CartSnapshotLine) int32 {
	var total int32
	for _, line := range lines {
		weight := line.WeightGrams
		if weight <= 0 {
			weight = DefaultItemWeightGrams
		}
		total += line.Quantity * weight
	}
	return total
}

// ParseDimensions reads a free-text "LxWxH" string leniently: any non-digit
// run separates numbers, the first three become length, width and height, and
// missing values keep the parcel defaults.
func ParseDimensions(dims string) (length, width, height int32) {
	length, width, height = DefaultLengthCm, DefaultWidthCm, DefaultHeightCm

	var nums []int32
	var cur int32
	inNumber := false
	for _, r := range dims {
		if r >= '0' && r <= '9' {
			cur = cur*10 + int32(r-'0')
			inNumber = true
			continue
		}
		if inNumber {
			nums = append(nums, cur)
			cur, inNumber = 0, false
			if len(nums) == 3 {
				break
			}
		}
	}
	if inNumber && len(nums) < 3 {
		nums = append(nums, cur)
	}

	if len(nums) >= 1 {
		length = nums[0]
	}
	if len(nums) >= 2 {
		width = nums[1]
	}
	if len(nums) >= 3 {
		height = nums[2]
	}
	return length, width, height
}
