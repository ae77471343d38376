package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/google/uuid"
	"github.com/uma-arai/sbcntr-stay/internal/common/config"
	"github.com/uma-arai/sbcntr-stay/internal/common/database"
	"github.com/uma-arai/sbcntr-stay/internal/common/utils"
	"github.com/uma-arai/sbcntr-stay/internal/model"
	"github.com/uma-arai/sbcntr-stay/internal/repository"
	"github.com/uma-arai/sbcntr-stay/internal/service/accommodation"
)

// TaskNotifier はStep Functionsへのタスク成功通知を抽象化します
// *sfn.Client が実装します
type TaskNotifier interface {
	SendTaskSuccess(ctx context.Context, params *sfn.SendTaskSuccessInput, optFns ...func(*sfn.Options)) (*sfn.SendTaskSuccessOutput, error)
}

// StepResult はシナリオ1ステップの実行結果です
type StepResult struct {
	Index     int    `json:"index"`
	Op        StepOp `json:"op"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// RunResult はシナリオ実行全体の結果です
type RunResult struct {
	RunID         string                 `json:"run_id"`
	Scenario      string                 `json:"scenario"`
	Steps         []StepResult           `json:"steps"`
	FailedSteps   int                    `json:"failed_steps"`
	Notifications []model.Notification   `json:"notifications"`
	Snapshot      accommodation.Snapshot `json:"snapshot"`
}

// ScenarioBatchService はシナリオを再生して予約フローを実行するバッチ処理を担当します
type ScenarioBatchService struct {
	runID            string
	scenario         Scenario
	repoDB           *repository.DB
	notificationRepo repository.NotificationRepository
	checkInRepo      repository.CheckInRepository
	sfnClient        TaskNotifier
	cfg              *config.Config
	result           *RunResult
}

// NewScenarioBatchService は新しいScenarioBatchServiceを作成します
// cfg.Persist が false の場合はDBに接続しません
func NewScenarioBatchService(cfg *config.Config, sfnClient TaskNotifier) (*ScenarioBatchService, error) {
	s := &ScenarioBatchService{
		runID:     uuid.NewString(),
		sfnClient: sfnClient,
		cfg:       cfg,
	}

	if !cfg.Persist {
		return s, nil
	}

	db, err := database.NewDB(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	// database.DBをrepository.DBに変換
	repoDb := &repository.DB{DB: db.DB}

	s.repoDB = repoDb
	s.notificationRepo = repository.NewNotificationRepository(repoDb)
	s.checkInRepo = repository.NewCheckInRepository(repoDb)

	return s, nil
}

// Close は終了処理を行います
func (s *ScenarioBatchService) Close() error {
	if s.repoDB != nil {
		return s.repoDB.Close()
	}
	return nil
}

// SetArgs は再生するシナリオを設定します
func (s *ScenarioBatchService) SetArgs(scenario Scenario) {
	s.scenario = scenario
}

// Result は直近の実行結果を返します
func (s *ScenarioBatchService) Result() *RunResult {
	return s.result
}

// Run はシナリオを再生し、結果を保存して通知します
func (s *ScenarioBatchService) Run(ctx context.Context) error {
	// X-Rayセグメントの作成
	ctx, seg := xray.BeginSubsegment(ctx, "ScenarioBatchService.Run")
	defer seg.Close(nil)

	startTime := time.Now()
	log.Printf("Starting scenario %q (run %s) with %d steps...", s.scenario.Name, s.runID, len(s.scenario.Steps))

	policy, err := accommodation.ParseDenyPolicy(s.cfg.Stay.DenyPolicy)
	if err != nil {
		return utils.GetStackWithError(err)
	}

	memory := &accommodation.MemoryNotifier{}
	app := accommodation.NewApp(accommodation.Options{
		ReservationDelay: s.cfg.Stay.ReservationDelay,
		DenyPolicy:       policy,
		FirstFee:         s.cfg.Stay.FirstFee,
		RepeatFee:        s.cfg.Stay.RepeatFee,
		Notifier:         accommodation.MultiNotifier{accommodation.LogNotifier{}, memory},
	})

	result := &RunResult{
		RunID:    s.runID,
		Scenario: s.scenario.Name,
	}

	for i, step := range s.scenario.Steps {
		sr := StepResult{Index: i + 1, Op: step.Op, OK: true}
		err := s.runStep(ctx, app, step)
		if err != nil {
			sr.OK = false
			sr.Error = err.Error()
			sr.ErrorKind = model.ErrorKind(err)
			result.FailedSteps++
		}
		result.Steps = append(result.Steps, sr)

		if err != nil && s.cfg.Stay.StopOnError {
			// 停止前までの通知とチェックイン記録はアーカイブする
			s.finish(app, memory, result)
			if perr := s.persist(ctx, result); perr != nil {
				log.Printf("Failed to persist stopped run %s: %v", result.RunID, perr)
			}
			seg.Close(err)
			return utils.GetStackWithError(fmt.Errorf("step %d (%s) failed: %w", sr.Index, step.Op, err))
		}
	}

	s.finish(app, memory, result)

	if err := s.persist(ctx, result); err != nil {
		seg.Close(err)
		return utils.GetStackWithError(fmt.Errorf("failed to persist run: %w", err))
	}

	if err := s.sendTaskSuccess(ctx, result); err != nil {
		seg.Close(err)
		return utils.GetStackWithError(fmt.Errorf("failed to send task success: %w", err))
	}

	duration := time.Since(startTime)

	// セグメントにメタデータを追加
	if seg != nil {
		if err := seg.AddMetadata("duration", duration.String()); err != nil {
			log.Printf("Failed to add duration metadata: %v", err)
		}
		if err := seg.AddMetadata("failed_steps", result.FailedSteps); err != nil {
			log.Printf("Failed to add failed_steps metadata: %v", err)
		}
	}

	log.Printf("Scenario batch process completed. Steps: %d, failed: %d, check-ins: %d, duration: %v",
		len(result.Steps), result.FailedSteps, len(result.Snapshot.CheckedIn), duration)
	return nil
}

// finish は遅延中の予約確定を待ってから実行結果を確定します
func (s *ScenarioBatchService) finish(app *accommodation.App, memory *accommodation.MemoryNotifier, result *RunResult) {
	app.Wait()
	result.Snapshot = app.Snapshot()
	result.Notifications = memory.Notifications()
	s.result = result
}

// runStep は1ステップをAppの操作に変換して実行します
func (s *ScenarioBatchService) runStep(ctx context.Context, app *accommodation.App, step Step) error {
	switch step.Op {
	case OpSelectRole:
		role, err := model.ParseRole(step.Role)
		if err != nil {
			return err
		}
		app.SelectRole(ctx, role)
		return nil
	case OpLogin:
		// 役割が未指定の場合はLoginが検証エラーを返す
		var role model.Role
		if step.Role != "" {
			parsed, err := model.ParseRole(step.Role)
			if err != nil {
				return err
			}
			role = parsed
		}
		_, err := app.Login(ctx, step.Username, step.Password, role)
		return err
	case OpLogout:
		app.Logout(ctx)
		return nil
	case OpAddProperty:
		// 読み込めない写真は未指定として扱い、Appの検証と通知に任せる
		photo, err := step.loadPhoto(s.scenario.baseDir)
		if err != nil {
			log.Printf("Failed to load photo for property %q: %v", step.Name, err)
			photo = nil
		}
		_, err = app.AddProperty(ctx, model.PropertyInput{
			Name:      step.Name,
			Price:     step.Price,
			Amenities: step.Amenities,
			Capacity:  step.Capacity,
			Photo:     photo,
		})
		return err
	case OpReserve:
		_, err := app.Reserve(ctx, step.PropertyID)
		return err
	case OpApprove:
		_, err := app.Approve(ctx, step.BookingID)
		return err
	case OpDeny:
		_, err := app.Deny(ctx, step.BookingID)
		return err
	case OpCheckIn:
		_, err := app.CheckIn(ctx, step.BookingID)
		return err
	case OpRate:
		return app.RateProperty(ctx, step.PropertyID, step.Stars)
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

// persist は通知とチェックイン記録をアーカイブします
func (s *ScenarioBatchService) persist(ctx context.Context, result *RunResult) error {
	if s.notificationRepo == nil && s.checkInRepo == nil {
		log.Printf("Persistence disabled. Skipping archive of run %s", result.RunID)
		return nil
	}

	if s.repoDB != nil {
		if err := s.repoDB.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	if s.notificationRepo != nil {
		records := make([]model.NotificationRecord, 0, len(result.Notifications))
		for _, n := range result.Notifications {
			record, err := n.ToNotificationRecord(result.RunID)
			if err != nil {
				return err
			}
			records = append(records, *record)
		}
		if err := s.notificationRepo.CreateNotifications(ctx, records); err != nil {
			return fmt.Errorf("failed to create notifications: %w", err)
		}
	}

	if s.checkInRepo != nil && len(result.Snapshot.CheckedIn) > 0 {
		if err := s.checkInRepo.CreateCheckIns(ctx, result.RunID, result.Snapshot.CheckedIn); err != nil {
			return fmt.Errorf("failed to create check-ins: %w", err)
		}
	}

	return nil
}

// sendTaskSuccess は、Step Functionsのタスク成功を通知し、実行結果の要約を返却します
func (s *ScenarioBatchService) sendTaskSuccess(ctx context.Context, result *RunResult) error {
	// ローカルの場合はStep Functionsの処理をスキップ
	if os.Getenv("ENV") == "LOCAL" || s.sfnClient == nil {
		log.Printf("Local environment detected. Skipping Step Functions task success notification")
		return nil
	}

	output, err := json.Marshal(map[string]any{
		"run_id":               result.RunID,
		"steps":                result.Steps,
		"failed_steps":         result.FailedSteps,
		"checked_in":           result.Snapshot.CheckedIn,
		"reservation_fee_hint": result.Snapshot.ReservationFeeHint,
		"check_in_fee":         result.Snapshot.CheckInFee,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	// タスクトークンを設定から取得
	taskToken := s.cfg.SFN.TaskToken
	if taskToken == "" {
		return fmt.Errorf("SFN_TASK_TOKEN is not set in config")
	}

	input := &sfn.SendTaskSuccessInput{
		TaskToken: aws.String(taskToken),
		Output:    aws.String(string(output)),
	}

	if _, err := s.sfnClient.SendTaskSuccess(ctx, input); err != nil {
		return fmt.Errorf("failed to send task success: %w", err)
	}

	log.Printf("Successfully sent task success for run %s", result.RunID)
	return nil
}
