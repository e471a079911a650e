// Package kat runs data-driven known-answer tests.
//
// Test logic is written once as a check function. Test data lives in a
// document next to it: one [global] table shared by every case and an
// ordered [[test]] array of cases.
//
// # Document Format
//
// TOML is the default format:
//
//	[global]
//	name = "GLOBAL"
//	value = 69
//
//	[[test]]
//	id = 0
//	test_name = "TEST"
//	value = 420
//
//	[[test]]
//	id = 1
//	test_name = "TEST"
//	value = 420
//
// YAML documents with a top-level global mapping and test sequence are
// accepted through the YAML format.
//
// # Usage
//
// Declare the globals and the test case as plain structs and hand them to
// Run with a check function:
//
//	type Global struct {
//	    Name  string
//	    Value int
//	}
//
//	type Case struct {
//	    ID       int
//	    TestName string
//	    Value    int
//	}
//
//	func TestData(t *testing.T) {
//	    kat.Run(t, kat.Config{Path: []string{"testdata", "data"}},
//	        func(t testing.TB, global *Global, tc Case) {
//	            assert.Equal(t, "GLOBAL", global.Name)
//	            assert.Equal(t, 420, tc.Value)
//	        })
//	}
//
// Each case runs in its own subtest, so one failing case does not stop the
// rest. A document that is missing or does not decode fails the test before
// any case runs.
//
// Field types are decoded through an adapt.Registry; see package adapt for
// registering custom types.
//
// # Lifecycle
//
// Run is built on Harness, which can also be driven directly:
//
//	Unresolved -> Resolved -> Loaded -> Parsed -> Iterating -> Done
//
// Load and Parse failures move the harness to Failed. Failures are terminal.
package kat
