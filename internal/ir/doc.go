// Package ir provides the plain data types shared by every stepwire package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Step types, logical names and node names are plain strings
//   - All JSON tags use snake_case
//   - Canonical (hashed) forms carry no floats; confidence is stored in
//     thousandths when a plan is hashed
package ir
