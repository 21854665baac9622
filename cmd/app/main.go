// @title Probe Station API
// @version 1.0.0
// @description API управления зондовой станцией: развертки напряжений, сканирование столиком с лазерной засветкой, история прогонов и поток событий.
// @host localhost:8082
// @BasePath /api/v1
package main

import "github.com/iwtcode/probeStation/internal/app"

func main() {
	// Создаем и запускаем новый экземпляр приложения fx
	app.New().Run()
}
