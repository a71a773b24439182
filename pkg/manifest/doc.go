// Package manifest models the server-published mod manifest.
//
// A manifest lists every file the server expects in the pack's mods
// directory together with how an absent file is resolved (ignored,
// fetched from a URL, or left to the operator), plus the compatibility
// metadata checked by Validator before any destructive step runs.
package manifest
