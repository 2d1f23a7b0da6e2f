// Package cli implements the interactive vehiclefeed admin console.
//
// The console logs in against the HTTP API, browses the reference mirror,
// drives the bulk importer, manages listings and exports the public feed.
// Type "help" at the prompt for the command list.
package cli
