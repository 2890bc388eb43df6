// Package flash implements two-generation flash messages.
//
// A Map keeps two generations of channel -> messages: now, visible during
// the current request, and next, staged for the following one. Handlers
// read now and write next; after the response the owning middleware rotates
// the map so next becomes the following request's now.
//
// A Registry groups several independent maps by id and converts to and from
// State, the nested map a session store persists:
//
//	{"flash": {"info": ["Welcome back!"], "errors": ["..."]}}
//
// Registries are built per request and are never shared between requests.
package flash
