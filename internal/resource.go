package accountstats

import (
	"regexp"

	"github.com/pkg/errors"
)

// ResourceKind selects the family of metrics a chart is built from
type ResourceKind string

const (
	CPU            ResourceKind = "cpu"
	Memory         ResourceKind = "memory"
	GPUUtilization ResourceKind = "gpu_utilization"
	GPUPower       ResourceKind = "gpu_power"
	LustreMDT      ResourceKind = "lustre_mdt"
	LustreOST      ResourceKind = "lustre_ost"
)

// Statistic selects which side of the allocation a chart shows
type Statistic string

const (
	Allocated Statistic = "allocated"
	Used      Statistic = "used"
	Wasted    Statistic = "wasted"
)

// ResourceKinds lists every kind in display order
var ResourceKinds = []ResourceKind{CPU, Memory, GPUUtilization, GPUPower, LustreMDT, LustreOST}

// Statistics lists every statistic in display order
var Statistics = []Statistic{Allocated, Used, Wasted}

// ChartRef names one chart an account can request
type ChartRef struct {
	Resource  ResourceKind `json:"resource"`
	Statistic Statistic    `json:"statistic"`
}

var accountPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func ParseResourceKind(s string) (ResourceKind, error) {
	kind := ResourceKind(s)
	if _, ok := resourceTable[kind]; !ok {
		return "", errors.Wrapf(ErrInvalidResource, "unknown resource %q", s)
	}
	return kind, nil
}

func ParseStatistic(s string) (Statistic, error) {
	for _, stat := range Statistics {
		if string(stat) == s {
			return stat, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidResource, "unknown statistic %q", s)
}

// ValidateAccount checks that an account name is safe to place inside a quoted
// equality matcher. Regex matchers need it quoted as well, see regexLiteral.
// Ownership is not checked here.
func ValidateAccount(account string) error {
	if !accountPattern.MatchString(account) {
		return errors.Wrapf(ErrInvalidAccount, "%q", account)
	}
	return nil
}

// Supports reports whether the kind defines a formula for the statistic
func (k ResourceKind) Supports(stat Statistic) bool {
	spec, ok := resourceTable[k]
	if !ok {
		return false
	}
	if stat == Wasted {
		return spec.hasWasted()
	}
	_, ok = spec.Queries[stat]
	return ok
}

// IsGPU reports whether the kind only makes sense for GPU-flavoured accounts
func (k ResourceKind) IsGPU() bool {
	return resourceTable[k].GPU
}

// AvailableCharts lists the charts defined for an account, GPU charts only when gpu is set
func AvailableCharts(gpu bool) []ChartRef {
	var refs []ChartRef
	for _, kind := range ResourceKinds {
		if kind.IsGPU() && !gpu {
			continue
		}
		for _, stat := range Statistics {
			if kind.Supports(stat) {
				refs = append(refs, ChartRef{Resource: kind, Statistic: stat})
			}
		}
	}
	return refs
}
