package main

const (
	exitCodeSuccess = 0
	exitCodeUsage   = 1
	exitCodeFailed  = 2
	exitCodeSetup   = 3
)
