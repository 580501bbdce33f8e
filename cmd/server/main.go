package main

// @title           CollabForge API
// @version         1.0
// @description     API for publishing tasks, forming teams through join requests and chatting inside task rooms.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	Execute()
}
