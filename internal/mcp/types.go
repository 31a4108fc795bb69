package mcp

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// OverlayOutput reports overlay state after a show/hide/toggle.
type OverlayOutput struct {
	Visible    bool `json:"visible"`
	DimVisible bool `json:"dim_visible"`
}

// StartOutlineInput is the input for the start_outline tool.
type StartOutlineInput struct {
	Color string  `json:"color,omitempty" jsonschema:"Border color as #RRGGBB, #RGB or a color name (default: outline.default_color from config)"`
	Width *uint32 `json:"width,omitempty" jsonschema:"Border thickness in pixels"`
	Blur  *uint32 `json:"blur,omitempty" jsonschema:"Blur radius in pixels. Accepted for compatibility; X11 rendering ignores it."`
}

// UpdateOutlineInput is the input for the update_outline tool. Omitted fields
// are left unchanged.
type UpdateOutlineInput struct {
	Color *string `json:"color,omitempty" jsonschema:"New border color"`
	Width *uint32 `json:"width,omitempty" jsonschema:"New border thickness in pixels"`
	Blur  *uint32 `json:"blur,omitempty" jsonschema:"New blur radius in pixels"`
}

// OutlineOutput reports the running outline helper.
type OutlineOutput struct {
	Running   bool    `json:"running"`
	SessionID string  `json:"session_id,omitempty"`
	Color     string  `json:"color,omitempty"`
	Width     *uint32 `json:"width,omitempty"`
	Blur      *uint32 `json:"blur,omitempty"`
}

// StatusOutput is the output for the get_status tool.
type StatusOutput struct {
	Visible       bool           `json:"visible"`
	DimVisible    bool           `json:"dim_visible"`
	Outline       *OutlineOutput `json:"outline,omitempty"`
	Backend       string         `json:"backend"`
	ClickThrough  bool           `json:"click_through"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	PID           int            `json:"pid"`
}

// AuthStatusOutput is the output for the auth_status tool.
type AuthStatusOutput struct {
	Authenticated       bool   `json:"authenticated"`
	DeviceEnrolled      bool   `json:"device_enrolled"`
	Connected           bool   `json:"connected"`
	DeviceID            string `json:"device_id,omitempty"`
	Platform            string `json:"platform"`
	DesktopEnvAvailable bool   `json:"desktop_env_available"`
}

// ConnectOutput is the output for the enroll_device and connect tools.
type ConnectOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    string `json:"data,omitempty"`
}
