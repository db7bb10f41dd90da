package handler

// createRequest opens a new draft.
type createRequest struct {
	FormType string `json:"form_type"`
}

// addRecordRequest appends a record to a collection.
type addRecordRequest struct {
	Kind string `json:"kind"`
}

// setFieldsRequest writes one or more fields by API name.
type setFieldsRequest struct {
	Fields map[string]string `json:"fields"`
}

// setRoleRequest toggles one director role.
type setRoleRequest struct {
	Role    string `json:"role"`
	Enabled bool   `json:"enabled"`
}

// setRoleInputRequest writes a role-specific input on a director.
type setRoleInputRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}
