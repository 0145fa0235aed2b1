package main

//go:generate swag init -g cmd/monitor/main.go -o docs

// @title           Basis Monitor API
// @version         0.1.0
// @description     Cash-and-carry basis monitoring for Bybit perpetual and dated futures.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
