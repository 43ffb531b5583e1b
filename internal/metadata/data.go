package metadata

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, reporting).

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used for retry, fallback, or cache decisions.
	 - Packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

  - The failure does not map cleanly to any known category.

# CauseNetworkFailure

  - Transport or remote availability: timeouts, DNS, resets, 5xx.

# CausePolicyDisallow

  - The upstream refused service: 403, 429.

# CauseContentInvalid

  - Content was fetched but could not be processed: non-HTML, unparsable DOM.

# CauseNotFound

  - The requested profile or repository page does not exist upstream.

# CauseInvalidInput

  - A caller supplied an identifier that can never resolve.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CausePolicyDisallow
	CauseContentInvalid
	CauseNotFound
	CauseInvalidInput
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CausePolicyDisallow:
		return "policy_disallow"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseNotFound:
		return "not_found"
	case CauseInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// CacheOutcome describes how a lookup was served.
type CacheOutcome string

const (
	CacheHit     CacheOutcome = "hit"
	CacheStale   CacheOutcome = "stale"
	CacheMiss    CacheOutcome = "miss"
	CacheRefresh CacheOutcome = "refresh"
	// CacheRevalidated marks a background refresh that replaced an entry.
	CacheRevalidated CacheOutcome = "revalidated"
	// CacheDropped marks a background refresh that was not scheduled.
	CacheDropped CacheOutcome = "dropped"
)

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrIdentifier AttributeKey = "identifier"
	AttrRepo       AttributeKey = "repo"
	AttrField      AttributeKey = "field"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrMessage    AttributeKey = "message"
)
