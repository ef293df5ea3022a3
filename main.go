package main

import (
	"log"

	"api/config"
	"api/database"
	"api/middleware"
	v1 "api/routes/v1"

	"github.com/gin-gonic/gin"
)

// @title Inkwell Blog API
// @version 1.0
// @description REST API backend for the Inkwell blog platform
// @BasePath /api/v1
func main() {
	config.LoadConfig()

	database.InitDB()
	database.InitRedis()

	middleware.UpdateSystemMetrics()

	r := gin.Default()
	v1.Register(r)

	log.Println("Listening on port " + config.ServerPort)
	if err := r.Run(":" + config.ServerPort); err != nil {
		log.Fatal("failed to start server: ", err)
	}
}
