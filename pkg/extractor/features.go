package extractor

import (
	"encoding/json"
	"math"
	"strconv"
)

// RevalidateKind describes what a file says about its revalidation interval.
type RevalidateKind int

const (
	// RevalidateAbsent means no revalidate key was found.
	RevalidateAbsent RevalidateKind = iota
	// RevalidateUnknown means a revalidate key exists but its value is not a
	// literal we can evaluate (an identifier, a call, true).
	RevalidateUnknown
	// RevalidateFalse is revalidate = false: cache indefinitely.
	RevalidateFalse
	// RevalidateSeconds is a numeric interval, possibly 0 or negative.
	RevalidateSeconds
)

// Revalidate is the merged revalidate value of a file.
type Revalidate struct {
	Kind    RevalidateKind
	Seconds float64
}

// Present reports whether any revalidate key was seen.
func (r Revalidate) Present() bool {
	return r.Kind != RevalidateAbsent
}

// Usable reports whether the value enables incremental regeneration: a
// positive number of seconds.
func (r Revalidate) Usable() bool {
	return r.Kind == RevalidateSeconds && r.Seconds > 0
}

// OptedOut reports revalidate = false or revalidate = 0.
func (r Revalidate) OptedOut() bool {
	return r.Kind == RevalidateFalse || (r.Kind == RevalidateSeconds && r.Seconds == 0)
}

func (r Revalidate) String() string {
	switch r.Kind {
	case RevalidateFalse:
		return "false"
	case RevalidateSeconds:
		return strconv.FormatFloat(r.Seconds, 'f', -1, 64)
	case RevalidateUnknown:
		return "unknown"
	default:
		return ""
	}
}

// known values order by interval, false being the longest.
func (r Revalidate) interval() float64 {
	if r.Kind == RevalidateFalse {
		return math.Inf(1)
	}
	return r.Seconds
}

func (r Revalidate) rank() int {
	switch r.Kind {
	case RevalidateFalse, RevalidateSeconds:
		return 2
	case RevalidateUnknown:
		return 1
	default:
		return 0
	}
}

// merge combines two observations independent of their order. Known values
// beat unknown ones and the shortest interval wins among known values, the
// way the framework resolves several revalidate settings for one route.
func (r Revalidate) merge(other Revalidate) Revalidate {
	if r.rank() != other.rank() {
		if other.rank() > r.rank() {
			return other
		}
		return r
	}
	if r.rank() < 2 {
		return r
	}
	if other.interval() < r.interval() {
		return other
	}
	return r
}

// MarshalJSON encodes absent as null, false as false, seconds as a number and
// anything else as "unknown".
func (r Revalidate) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.value())
}

// MarshalYAML mirrors MarshalJSON.
func (r Revalidate) MarshalYAML() (interface{}, error) {
	return r.value(), nil
}

func (r Revalidate) value() interface{} {
	switch r.Kind {
	case RevalidateFalse:
		return false
	case RevalidateSeconds:
		return r.Seconds
	case RevalidateUnknown:
		return "unknown"
	default:
		return nil
	}
}

// Priorities for string-valued segment options. When one file sets an option
// more than once the earlier entry wins; unrecognized values rank last.
var (
	dynamicPriority    = []string{"force-dynamic", "force-static", "error", "auto"}
	fetchCachePriority = []string{"no-store", "force-cache"}
	runtimePriority    = []string{"edge", "nodejs"}
)

func mergeMode(current, candidate string, priority []string) string {
	if current == "" {
		return candidate
	}
	if candidate == "" || candidate == current {
		return current
	}
	ci, ni := modeRank(current, priority), modeRank(candidate, priority)
	if ni < ci || (ni == ci && candidate < current) {
		return candidate
	}
	return current
}

func modeRank(value string, priority []string) int {
	for i, p := range priority {
		if p == value {
			return i
		}
	}
	return len(priority)
}

// DetectedFeatures records the rendering-relevant constructs found in one
// source file. Fields only ever move from their zero value to a more specific
// one, so the order in which the tree is visited does not matter.
type DetectedFeatures struct {
	// Data fetching declarations
	HasGetStaticProps       bool `json:"hasGetStaticProps" yaml:"hasGetStaticProps"`
	HasGetServerSideProps   bool `json:"hasGetServerSideProps" yaml:"hasGetServerSideProps"`
	HasGetStaticPaths       bool `json:"hasGetStaticPaths" yaml:"hasGetStaticPaths"`
	HasGenerateStaticParams bool `json:"hasGenerateStaticParams" yaml:"hasGenerateStaticParams"`
	HasGenerateMetadata     bool `json:"hasGenerateMetadata" yaml:"hasGenerateMetadata"`

	// Module directives and segment config
	IsClientComponent bool       `json:"isClientComponent" yaml:"isClientComponent"`
	HasMetadata       bool       `json:"hasMetadata" yaml:"hasMetadata"`
	Revalidate        Revalidate `json:"revalidate" yaml:"revalidate"`
	Runtime           string     `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	FetchCache        string     `json:"fetchCache,omitempty" yaml:"fetchCache,omitempty"`
	Dynamic           string     `json:"dynamic,omitempty" yaml:"dynamic,omitempty"`

	// Server context APIs
	UsesCookies       bool `json:"usesCookies" yaml:"usesCookies"`
	UsesHeaders       bool `json:"usesHeaders" yaml:"usesHeaders"`
	UsesSearchParams  bool `json:"usesSearchParams" yaml:"usesSearchParams"`
	UsesNotFound      bool `json:"usesNotFound" yaml:"usesNotFound"`
	UsesRedirect      bool `json:"usesRedirect" yaml:"usesRedirect"`
	UsesUnstableCache bool `json:"usesUnstableCache" yaml:"usesUnstableCache"`

	// fetch() cache hints
	HasFetchNoStore    bool `json:"hasFetchWithNoStore" yaml:"hasFetchWithNoStore"`
	HasFetchForceCache bool `json:"hasFetchWithForceCache" yaml:"hasFetchWithForceCache"`

	// Client hooks
	HasUseEffect       bool `json:"hasUseEffect" yaml:"hasUseEffect"`
	HasUseState        bool `json:"hasUseState" yaml:"hasUseState"`
	HasUseLayoutEffect bool `json:"hasUseLayoutEffect" yaml:"hasUseLayoutEffect"`
}

// Merge folds other into f. Merge is commutative and idempotent.
func (f *DetectedFeatures) Merge(other *DetectedFeatures) {
	if other == nil {
		return
	}
	f.HasGetStaticProps = f.HasGetStaticProps || other.HasGetStaticProps
	f.HasGetServerSideProps = f.HasGetServerSideProps || other.HasGetServerSideProps
	f.HasGetStaticPaths = f.HasGetStaticPaths || other.HasGetStaticPaths
	f.HasGenerateStaticParams = f.HasGenerateStaticParams || other.HasGenerateStaticParams
	f.HasGenerateMetadata = f.HasGenerateMetadata || other.HasGenerateMetadata
	f.IsClientComponent = f.IsClientComponent || other.IsClientComponent
	f.HasMetadata = f.HasMetadata || other.HasMetadata
	f.Revalidate = f.Revalidate.merge(other.Revalidate)
	f.Runtime = mergeMode(f.Runtime, other.Runtime, runtimePriority)
	f.FetchCache = mergeMode(f.FetchCache, other.FetchCache, fetchCachePriority)
	f.Dynamic = mergeMode(f.Dynamic, other.Dynamic, dynamicPriority)
	f.UsesCookies = f.UsesCookies || other.UsesCookies
	f.UsesHeaders = f.UsesHeaders || other.UsesHeaders
	f.UsesSearchParams = f.UsesSearchParams || other.UsesSearchParams
	f.UsesNotFound = f.UsesNotFound || other.UsesNotFound
	f.UsesRedirect = f.UsesRedirect || other.UsesRedirect
	f.UsesUnstableCache = f.UsesUnstableCache || other.UsesUnstableCache
	f.HasFetchNoStore = f.HasFetchNoStore || other.HasFetchNoStore
	f.HasFetchForceCache = f.HasFetchForceCache || other.HasFetchForceCache
	f.HasUseEffect = f.HasUseEffect || other.HasUseEffect
	f.HasUseState = f.HasUseState || other.HasUseState
	f.HasUseLayoutEffect = f.HasUseLayoutEffect || other.HasUseLayoutEffect
}

func (f *DetectedFeatures) setRevalidate(r Revalidate) {
	f.Revalidate = f.Revalidate.merge(r)
}

func (f *DetectedFeatures) setRuntime(v string) {
	f.Runtime = mergeMode(f.Runtime, v, runtimePriority)
}

func (f *DetectedFeatures) setFetchCache(v string) {
	f.FetchCache = mergeMode(f.FetchCache, v, fetchCachePriority)
}

func (f *DetectedFeatures) setDynamic(v string) {
	f.Dynamic = mergeMode(f.Dynamic, v, dynamicPriority)
}

// HasClientHooks reports useEffect or useState usage.
func (f *DetectedFeatures) HasClientHooks() bool {
	return f.HasUseEffect || f.HasUseState
}
