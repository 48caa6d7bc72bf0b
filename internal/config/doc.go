// Package config provides the runtime settings registry for buildopts.
//
// A Store holds the live table of named build settings for one
// configuration session. It is built from a declarative schema (see the
// schema sub-package) and enforces, on every access:
//
//   - an optional allow-list (LimitSettings)
//   - legacy name handling: renames forward writes to the modern setting,
//     restricted names accept only fixed values, and strict mode forbids
//     both
//   - the unknown-name check, with close-match suggestions
//   - the type check, where each setting's type is inferred once from its
//     default
//
// # Sub-packages
//
//   - schema: the embedded settings document and its decoder
//   - registry: setting definitions, type inference and value checks
//   - legacy: deprecated names and their replacements
//   - suggest: close-match ranking for unknown names
//   - loader: NAME=VALUE parsing, override files and the environment
//   - layer: ordered override layers
//   - notify: change events
//
// # Basic Usage
//
//	store, err := config.New(nil)
//	if err != nil {
//	    return err
//	}
//	if err := store.Set("ASSERTIONS", 2); err != nil {
//	    return err
//	}
//	strict, _ := store.Truthy("STRICT")
//
// # Error Handling
//
// Every failure matches one of the package sentinels with errors.Is:
//
//   - ErrUnknownSetting: name not in the live table
//   - ErrAccessDenied: name outside the active allow-list
//   - ErrTypeMismatch: value type differs from the inferred type
//   - ErrBooleanString: "true"/"false" given for a boolean (use 1/0)
//   - ErrInvalidLegacyValue: restricted legacy name given another value
//   - ErrStrictMode: legacy name written in strict mode
//   - ErrSchemaConflict: the schema contradicts itself
package config
