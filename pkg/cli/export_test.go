package cli

var RunWithOutput = run
