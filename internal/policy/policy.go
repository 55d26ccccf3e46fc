// Package policy is the single access-control decision point for the
// platform. Both the server-side enforcement middleware and the client
// navigation guard endpoint consume Decide, so the two layers can never
// drift apart. Decisions are pure: the caller supplies the role, the
// tenant's persisted kiosk flag and the requested route.
package policy

import "strings"

// Redirect targets handed back on denial. These are navigation hints
// for the client guard; the server itself only ever redirects GETs.
const (
	RedirectTerminal = "/pos"
	RedirectDash     = "/dashboard"
	RedirectBook     = "/book"
	RedirectLogin    = "/login"
)

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed    bool   `json:"allowed"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// kioskAllow is the fixed operational allow-list active in kiosk mode.
// It applies to every role including owner: kiosk mode is zero-trust
// and cannot be bypassed by privilege.
var kioskAllow = []string{
	"/healthz",
	"/v1/access/decision",
	"/v1/me",
	"/v1/bookings",
	"/v1/my-bookings",
	"/v1/pos",
	"/v1/expenses",
	"/v1/dashboard",
	"/v1/services",
	"/v1/staff",
}

// staffAllow extends the kiosk set with the customer list. Reports,
// settings, team management and catalog editing stay owner-only.
var staffAllow = append(append([]string{}, kioskAllow...), "/v1/customers")

// customerAllow covers the customer-facing surface.
var customerAllow = []string{
	"/healthz",
	"/v1/access/decision",
	"/v1/me",
	"/v1/bookings",
	"/v1/my-bookings",
	"/v1/services",
	"/v1/staff",
}

func matches(route string, allow []string) bool {
	for _, p := range allow {
		if route == p || strings.HasPrefix(route, p+"/") {
			return true
		}
	}
	return false
}

// staffBookingOps are the lifecycle transitions reserved for shop
// staff. Customers keep plain create/list and cancel under
// /v1/bookings; marking someone a no-show, forgiving one, or seating a
// booking are operational acts on another person's record.
var staffBookingOps = []string{"/no-show", "/forgive", "/seat"}

func staffOnlyBooking(route string) bool {
	if !strings.HasPrefix(route, "/v1/bookings/") {
		return false
	}
	for _, op := range staffBookingOps {
		if strings.HasSuffix(route, op) {
			return true
		}
	}
	return false
}

// Decide evaluates the access policy in priority order; the first rule
// that applies wins.
//
//  1. Kiosk mode restricts every role to the operational allow-list and
//     redirects everything else to the terminal.
//  2. Staff get the operational surface plus the customer list.
//  3. Owner and super_admin get full access.
//  4. Customers and unaffiliated users are confined to the
//     customer-facing surface.
func Decide(role string, kioskActive bool, route string) Decision {
	if kioskActive {
		if matches(route, kioskAllow) {
			return Decision{Allowed: true}
		}
		return Decision{Allowed: false, RedirectTo: RedirectTerminal}
	}
	switch role {
	case "staff", "kiosk":
		if matches(route, staffAllow) {
			return Decision{Allowed: true}
		}
		return Decision{Allowed: false, RedirectTo: RedirectDash}
	case "owner", "super_admin":
		return Decision{Allowed: true}
	case "customer":
		if matches(route, customerAllow) && !staffOnlyBooking(route) {
			return Decision{Allowed: true}
		}
		return Decision{Allowed: false, RedirectTo: RedirectBook}
	default:
		// No recognized role: treat as anonymous.
		if matches(route, customerAllow) && !staffOnlyBooking(route) {
			return Decision{Allowed: true}
		}
		return Decision{Allowed: false, RedirectTo: RedirectLogin}
	}
}
