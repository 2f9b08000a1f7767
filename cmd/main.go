package main

import "github.com/adanyl0v/go-task-assign/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectDatabase()
	defer app.DisconnectDatabase()

	app.MustOpenAttachmentStore()
	defer app.CloseAttachmentStore()

	app.MustListenAndServeHTTP()
}
