// Package main is the entry point for the travel agent Lambda.
package main

import (
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	travellambda "github.com/byteness/travelgate/lambda"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	handler := travellambda.NewHandler()

	switch mode := os.Getenv(travellambda.EnvHandlerMode); mode {
	case "", travellambda.ModeActionGroup:
		lambda.Start(handler.HandleActionGroup)
	case travellambda.ModeHTTP:
		lambda.Start(travellambda.NewRouter(handler).Route)
	default:
		log.Fatalf("unknown %s %q (want %s or %s)", travellambda.EnvHandlerMode, mode,
			travellambda.ModeActionGroup, travellambda.ModeHTTP)
	}
}
