package stream

import (
	"log"
	"sync"
	"time"

	"poultry-monitor/internal/models"
)

// Producer фоновый источник показаний с настраиваемым интервалом.
// Показания передаются потребителю через канал, прямой записи в общее
// состояние из второй горутины нет. Сигнал остановки проверяется раз
// за цикл, операций внутри цикла, требующих отмены, нет.
type Producer struct {
	generator *Generator
	interval  time.Duration
	readings  chan models.Reading
	stopChan  chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewProducer создает источник показаний с заданным интервалом
func NewProducer(generator *Generator, interval time.Duration) *Producer {
	if interval < time.Second {
		interval = time.Second
	}
	return &Producer{
		generator: generator,
		interval:  interval,
		readings:  make(chan models.Reading, 100),
		stopChan:  make(chan struct{}),
	}
}

// Readings канал новых показаний
func (p *Producer) Readings() <-chan models.Reading {
	return p.readings
}

// Start запускает фоновую генерацию показаний
func (p *Producer) Start() {
	p.startOnce.Do(func() {
		p.wg.Add(1)
		go p.run()
		log.Printf("Sensor stream started with interval %s\n", p.interval)
	})
}

// Stop останавливает генерацию и закрывает канал показаний
func (p *Producer) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
		p.wg.Wait()
		close(p.readings)
		log.Println("Sensor stream stopped")
	})
}

func (p *Producer) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			select {
			case p.readings <- p.generator.Next():
			default:
				// Потребитель не успевает, показание пропускаем
			}
		}
	}
}
