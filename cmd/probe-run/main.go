// Command probe-run выполняет прогон из YAML-файла на настроенных приборах без HTTP-сервиса.
//
//	probe-run -run transfer.yaml
//	probe-run -run scan.yaml -simulate -data ./data/test.jsonl
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	probestation "github.com/iwtcode/probeStation"
	"github.com/iwtcode/probeStation/experiments"
)

func main() {
	runPath := flag.String("run", "", "путь к YAML-файлу прогона")
	simulate := flag.Bool("simulate", false, "использовать симуляторы вместо приборов")
	dataFile := flag.String("data", "", "журнал результатов (по умолчанию DATA_FILE)")
	flag.Parse()

	if *runPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	// 1) Загрузка конфигурации и файла прогона
	cfg := probestation.Load()
	if *simulate {
		cfg.Simulate = true
	}
	if *dataFile != "" {
		cfg.DataFile = *dataFile
	}

	rf, err := probestation.LoadRunFile(*runPath)
	if err != nil {
		log.Fatalf("Не удалось прочитать файл прогона: %v", err)
	}

	// 2) Подключение к приборам
	client, err := probestation.New(cfg)
	if err != nil {
		log.Fatalf("Не удалось открыть приборы: %v", err)
	}
	client.AddObserver(experiments.ObserverFuncs{
		OnCurve: func(e experiments.CurveFinished) {
			fmt.Printf("кривая %s: %d точек, внешнее напряжение %.3f В\n", e.Path, e.Samples, e.OuterValue)
		},
		OnProgress: func(e experiments.GridProgress) {
			fmt.Printf("%s: %s\n", e.Label, e.Text)
		},
	})

	// 3) Запуск; Ctrl+C останавливает прогон после текущей точки
	task, err := client.StartRun(rf)
	if err != nil {
		_ = client.Close()
		log.Fatalf("Не удалось запустить прогон: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nОстановка прогона...")
		task.Stop()
	}()

	runErr := task.Wait()
	if err := client.Close(); err != nil {
		log.Printf("Ошибка при переводе приборов в безопасное состояние: %v", err)
	}
	if runErr != nil {
		log.Fatalf("Прогон завершился с ошибкой: %v", runErr)
	}
	if task.Stopped() {
		fmt.Println("Прогон остановлен.")
		return
	}
	fmt.Printf("Прогон %s выполнен, данные: %s\n", rf.Kind, cfg.DataFile)
}
