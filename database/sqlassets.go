package sqlassets

import _ "embed"

//go:embed schema/tenants.sql
var TenantsSQL string

//go:embed schema/memberships.sql
var MembershipsSQL string

//go:embed schema/inbox.sql
var InboxSQL string
