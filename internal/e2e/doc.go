// Package e2e drives the springup-fixture CLI through the harness. The
// fixture is built once per test binary; set TERMHARNESS_COMMAND (and
// TERMHARNESS_BASE_ARGS) to run the scenarios against another build.
package e2e
