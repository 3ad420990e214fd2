package central

import "time"

// IDType identifies what kind of account the credentials belong to.
type IDType string

const (
	IDTypeTenant       IDType = "tenant"
	IDTypePartner      IDType = "partner"
	IDTypeOrganization IDType = "organization"
)

// Identity is the resolved caller identity and the hosts it talks to.
type Identity struct {
	ID        string `json:"id" yaml:"id"`
	IDType    IDType `json:"idType" yaml:"idType"`
	APIURL    string `json:"apiUrl,omitempty" yaml:"apiUrl,omitempty"`
	GlobalURL string `json:"globalUrl" yaml:"globalUrl"`
}

// PageInfo is the metadata part of a pagination envelope. Some collections
// are paged by number (Current/TotalPages), others by key (NextKey).
type PageInfo struct {
	Current    int    `json:"current,omitempty" yaml:"current,omitempty"`
	Size       int    `json:"size,omitempty" yaml:"size,omitempty"`
	TotalItems int    `json:"items,omitempty" yaml:"items,omitempty"`
	TotalPages int    `json:"total,omitempty" yaml:"total,omitempty"`
	MaxSize    int    `json:"maxSize,omitempty" yaml:"maxSize,omitempty"`
	FromKey    string `json:"fromKey,omitempty" yaml:"fromKey,omitempty"`
	NextKey    string `json:"nextKey,omitempty" yaml:"nextKey,omitempty"`
}

// Page is a pagination envelope as returned by the API.
type Page[T any] struct {
	Items []T      `json:"items" yaml:"items"`
	Pages PageInfo `json:"pages" yaml:"pages"`
}

// HasMore returns true if there are more pages available.
func (p *Page[T]) HasMore() bool {
	if p.Pages.NextKey != "" {
		return true
	}
	return p.Pages.Current > 0 && p.Pages.Current < p.Pages.TotalPages
}

// Next returns the options that fetch the page after p, keeping the page
// size of opts.
func (p *Page[T]) Next(opts PageOptions) PageOptions {
	if p.Pages.NextKey != "" {
		return PageOptions{FromKey: p.Pages.NextKey, PageSize: opts.PageSize}
	}
	return PageOptions{Page: p.Pages.Current + 1, PageSize: opts.PageSize}
}

// PageOptions selects a page. Number-paged collections use Page, key-paged
// collections use FromKey; zero values are left to the server defaults.
type PageOptions struct {
	Page     int
	PageSize int
	FromKey  string
}

func (o PageOptions) params(p Params) Params {
	if p == nil {
		p = Params{}
	}
	if o.Page > 0 {
		p["page"] = o.Page
	}
	if o.PageSize > 0 {
		p["pageSize"] = o.PageSize
	}
	if o.FromKey != "" {
		p["pageFromKey"] = o.FromKey
	}
	return p
}

// Tenant is a tenant managed by a partner or organization.
type Tenant struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	ShowAs        string `json:"showAs,omitempty" yaml:"showAs,omitempty"`
	DataGeography string `json:"dataGeography,omitempty" yaml:"dataGeography,omitempty"`
	DataRegion    string `json:"dataRegion,omitempty" yaml:"dataRegion,omitempty"`
	BillingType   string `json:"billingType,omitempty" yaml:"billingType,omitempty"`
	APIHost       string `json:"apiHost,omitempty" yaml:"apiHost,omitempty"`
	Status        string `json:"status,omitempty" yaml:"status,omitempty"`
}

// Health summarizes an endpoint's health.
type Health struct {
	Overall  string       `json:"overall,omitempty" yaml:"overall,omitempty"`
	Threats  StatusObject `json:"threats,omitzero" yaml:"threats,omitempty"`
	Services StatusObject `json:"services,omitzero" yaml:"services,omitempty"`
}

// StatusObject is a nested {status} value.
type StatusObject struct {
	Status string `json:"status,omitempty" yaml:"status,omitempty"`
}

// OS describes an endpoint's operating system.
type OS struct {
	IsServer     bool   `json:"isServer" yaml:"isServer"`
	Platform     string `json:"platform,omitempty" yaml:"platform,omitempty"`
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	MajorVersion int    `json:"majorVersion,omitempty" yaml:"majorVersion,omitempty"`
	MinorVersion int    `json:"minorVersion,omitempty" yaml:"minorVersion,omitempty"`
	Build        int    `json:"build,omitempty" yaml:"build,omitempty"`
}

// Person is a user associated with an endpoint or alert.
type Person struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	ViaLogin string `json:"viaLogin,omitempty" yaml:"viaLogin,omitempty"`
}

// Product is a product assigned to an endpoint.
type Product struct {
	Code    string `json:"code" yaml:"code"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Status  string `json:"status,omitempty" yaml:"status,omitempty"`
}

// Isolation is an endpoint's network isolation state.
type Isolation struct {
	Status        string `json:"status,omitempty" yaml:"status,omitempty"`
	AdminIsolated bool   `json:"adminIsolated" yaml:"adminIsolated"`
	SelfIsolated  bool   `json:"selfIsolated" yaml:"selfIsolated"`
}

// Endpoint is a managed computer or server.
type Endpoint struct {
	ID                      string    `json:"id" yaml:"id"`
	Type                    string    `json:"type" yaml:"type"`
	Hostname                string    `json:"hostname" yaml:"hostname"`
	Health                  Health    `json:"health,omitzero" yaml:"health,omitempty"`
	OS                      OS        `json:"os,omitzero" yaml:"os,omitempty"`
	IPv4Addresses           []string  `json:"ipv4Addresses,omitempty" yaml:"ipv4Addresses,omitempty"`
	MACAddresses            []string  `json:"macAddresses,omitempty" yaml:"macAddresses,omitempty"`
	AssociatedPerson        *Person   `json:"associatedPerson,omitempty" yaml:"associatedPerson,omitempty"`
	TamperProtectionEnabled bool      `json:"tamperProtectionEnabled" yaml:"tamperProtectionEnabled"`
	AssignedProducts        []Product `json:"assignedProducts,omitempty" yaml:"assignedProducts,omitempty"`
	LastSeenAt              time.Time `json:"lastSeenAt,omitzero" yaml:"lastSeenAt,omitempty"`
	Isolation               Isolation `json:"isolation,omitzero" yaml:"isolation,omitempty"`
}

// EndpointFilter narrows an endpoint listing. Empty fields are not sent.
type EndpointFilter struct {
	HealthStatus            []string
	Type                    []string
	IsolationStatus         string
	HostnameContains        string
	Search                  string
	LastSeenBefore          string
	LastSeenAfter           string
	TamperProtectionEnabled *bool
	IDs                     []string
	View                    string
}

func (f *EndpointFilter) params() Params {
	p := Params{}
	if f == nil {
		return p
	}
	p["healthStatus"] = f.HealthStatus
	p["type"] = f.Type
	p["ids"] = f.IDs
	p["tamperProtectionEnabled"] = f.TamperProtectionEnabled
	for key, value := range map[string]string{
		"isolationStatus":  f.IsolationStatus,
		"hostnameContains": f.HostnameContains,
		"search":           f.Search,
		"lastSeenBefore":   f.LastSeenBefore,
		"lastSeenAfter":    f.LastSeenAfter,
		"view":             f.View,
	} {
		if value != "" {
			p[key] = value
		}
	}
	return p
}

// IsolationResult is one entry of an isolation change response.
type IsolationResult struct {
	ID        string    `json:"id" yaml:"id"`
	Isolation Isolation `json:"isolation" yaml:"isolation"`
}

// Severity is an alert severity.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// AgentRef references the managed agent an alert was raised on.
type AgentRef struct {
	ID   string `json:"id" yaml:"id"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// TenantRef references the tenant an alert belongs to.
type TenantRef struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Alert is a security alert.
type Alert struct {
	ID             string     `json:"id" yaml:"id"`
	AllowedActions []string   `json:"allowedActions,omitempty" yaml:"allowedActions,omitempty"`
	Category       string     `json:"category" yaml:"category"`
	Description    string     `json:"description" yaml:"description"`
	GroupKey       string     `json:"groupKey,omitempty" yaml:"groupKey,omitempty"`
	ManagedAgent   *AgentRef  `json:"managedAgent,omitempty" yaml:"managedAgent,omitempty"`
	Person         *Person    `json:"person,omitempty" yaml:"person,omitempty"`
	Product        string     `json:"product" yaml:"product"`
	RaisedAt       time.Time  `json:"raisedAt" yaml:"raisedAt"`
	Severity       Severity   `json:"severity" yaml:"severity"`
	Tenant         *TenantRef `json:"tenant,omitempty" yaml:"tenant,omitempty"`
	Type           string     `json:"type" yaml:"type"`
}

// AlertFilter narrows an alert listing. Empty fields are not sent.
type AlertFilter struct {
	Product  []string
	Category []string
	Severity []Severity
	GroupKey string
	From     time.Time
	To       time.Time
}

func (f *AlertFilter) params() Params {
	p := Params{}
	if f == nil {
		return p
	}
	p["product"] = f.Product
	p["category"] = f.Category
	p["severity"] = f.Severity
	p["from"] = f.From
	p["to"] = f.To
	if f.GroupKey != "" {
		p["groupKey"] = f.GroupKey
	}
	return p
}

// AlertAction is an action that can be taken on an alert.
type AlertAction string

const (
	ActionAcknowledge AlertAction = "acknowledge"
	ActionCleanPUA    AlertAction = "cleanPua"
	ActionCleanVirus  AlertAction = "cleanVirus"
	ActionAuthPUA     AlertAction = "authPua"
	ActionClearThreat AlertAction = "clearThreat"
	ActionClearHMPA   AlertAction = "clearHmpa"
)

// ActionResult is the response to an alert action.
type ActionResult struct {
	ID          string      `json:"id" yaml:"id"`
	AlertID     string      `json:"alertId" yaml:"alertId"`
	Action      AlertAction `json:"action" yaml:"action"`
	Status      string      `json:"status" yaml:"status"`
	RequestedAt time.Time   `json:"requestedAt,omitzero" yaml:"requestedAt,omitempty"`
	StartedAt   time.Time   `json:"startedAt,omitzero" yaml:"startedAt,omitempty"`
	Result      string      `json:"result,omitempty" yaml:"result,omitempty"`
}

// ScanResult is the response to a scan request.
type ScanResult struct {
	ID          string    `json:"id" yaml:"id"`
	Status      string    `json:"status" yaml:"status"`
	RequestedAt time.Time `json:"requestedAt,omitzero" yaml:"requestedAt,omitempty"`
}
