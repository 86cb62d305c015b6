package main

// General API documentation for swaggo. Regenerate with
// `swag init -g cmd/arcticd/docs.go -o docs`.
//
// @title           arcticd API
// @version         1.0
// @description     HTTP API for catalog-driven model and LoRA downloads.
//
// @contact.name   arcticd maintainers
//
// @BasePath  /
//
// @schemes http
