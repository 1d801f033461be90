package cli

var (
	PrintPlan = printPlan
	Serve     = serve
)
