package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"studyroom-backend/internal/models"
	"studyroom-backend/internal/services"
)

// Pool drains the notification queue and delivers emails. Delivery is
// best-effort: a failed send is logged and dropped, never retried into the
// user's inbox twice.
type Pool struct {
	redis       *redis.Client
	email       *services.EmailService
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, email *services.EmailService, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		email:       email,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	ctx := context.Background()

	for {
		select {
		case <-p.stopChan:
			return
		default:
		}

		// Block briefly so Stop is observed promptly.
		result, err := p.redis.BLPop(ctx, 2*time.Second, services.NotificationQueue).Result()
		if err != nil {
			if err != redis.Nil {
				log.Printf("worker %d: queue read failed: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job models.NotificationJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("worker %d: dropping malformed job: %v", id, err)
			continue
		}

		p.process(id, job)
	}
}

func (p *Pool) process(id int, job models.NotificationJob) {
	var err error
	switch job.Type {
	case models.NotifyScheduleReminder:
		err = p.email.SendScheduleReminder(job.Email, job.Nickname, job.Title, job.StartsAt)
	case models.NotifyWeeklyDigest:
		err = p.email.SendWeeklyDigest(job.Email, job.Nickname, job.TotalSeconds, job.StreakDays, job.TopSubject)
	default:
		log.Printf("worker %d: unknown job type %q", id, job.Type)
		return
	}

	if err != nil {
		log.Printf("worker %d: failed to deliver %s to %s: %v", id, job.Type, job.Email, err)
	}
}
