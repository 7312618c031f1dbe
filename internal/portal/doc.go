// Package portal is the HTTP client for the vendor cloud portal.
//
// It covers the three-step credential login (signed main-API login, auth
// code grant, IoT token exchange), the device list, the JSON command
// endpoint and the clean-log endpoint.
//
// Transport failures (network, HTTP status, malformed JSON) surface as
// errors. Logical failures the portal encodes inside a 200 response
// ("ret": "fail", nonzero result codes) are returned as payload for the
// caller to interpret, except during login where they abort the flow.
package portal
