package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/spf13/pflag"
	"github.com/uma-arai/sbcntr-stay/internal/common/config"
	"github.com/uma-arai/sbcntr-stay/internal/common/utils"
	"github.com/uma-arai/sbcntr-stay/internal/service/batch"
)

const (
	projectName = "sbcntr-stay"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run はバッチ処理を実行し、終了コードを返します
// deferで登録した終了処理はos.Exitの前に必ず実行されます
func run(args []string) int {
	// コマンドライン引数のパース
	flags := pflag.NewFlagSet("session", pflag.ContinueOnError)
	timeout := flags.Duration("timeout", 5*time.Minute, "バッチ処理のタイムアウト時間")
	scenarioPath := flags.String("scenario", "", "再生するシナリオファイル (YAML または JSON)")
	scenarioInline := flags.String("scenario-inline", "", "シナリオ本文を直接指定する場合のYAML/JSON")
	outputPath := flags.String("output", "", "実行結果のJSONを書き出すファイル (\"-\" で標準出力)")
	if err := flags.Parse(args); err != nil {
		log.Printf("Failed to parse flags: %v", err)
		return 2
	}

	// 最後の引数として渡されたタスクトークンを取得
	// ENV=LOCALの場合はタスクトークンを取得しない
	taskToken := "DUMMY_TASK_TOKEN"
	if os.Getenv("ENV") != "LOCAL" {
		if flags.NArg() == 0 || flags.Arg(flags.NArg()-1) == "" {
			log.Printf("Task token is required")
			return 2
		}
		taskToken = flags.Arg(flags.NArg() - 1)
	}

	scenario, err := loadScenario(*scenarioPath, *scenarioInline)
	if err != nil {
		log.Printf("Failed to load scenario: %v", err)
		return 1
	}

	// 設定の読み込み
	cfg, err := config.LoadConfig(taskToken)
	if err != nil {
		log.Printf("Failed to load config: %v\nStack trace:\n%s", err, debug.Stack())
		return 1
	}

	// X-Ray設定
	if cfg.EnableTracing {
		if err := xray.Configure(xray.Config{
			DaemonAddr:     "127.0.0.1:2000", // X-Rayデーモンのアドレス
			ServiceVersion: "1.0.0",
		}); err != nil {
			log.Printf("Failed to configure X-Ray: %v", err)
			// X-Ray設定失敗時はデフォルトの設定を使用
			if configErr := xray.Configure(xray.Config{}); configErr != nil {
				log.Printf("Failed to configure default X-Ray settings: %v", configErr)
				return 1
			}
		}
		os.Setenv("AWS_XRAY_CONTEXT_MISSING", "LOG_ERROR")
	}

	// Step Functionsクライアントの初期化
	var sfnClient *sfn.Client
	if os.Getenv("ENV") != "LOCAL" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			log.Printf("Failed to load AWS config: %v\nStack trace:\n%s", err, debug.Stack())
			return 1
		}
		sfnClient = sfn.NewFromConfig(awsCfg)
	}

	// nilの*sfn.Clientをそのまま渡すとインターフェースがnilにならない
	var notifier batch.TaskNotifier
	if sfnClient != nil {
		notifier = sfnClient
	}

	// サービスの初期化
	service, err := batch.NewScenarioBatchService(cfg, notifier)
	if err != nil {
		log.Printf("Failed to create service: %v\nStack trace:\n%s", err, debug.Stack())
		return 1
	}
	defer func() {
		if err := service.Close(); err != nil {
			log.Printf("Failed to close service: %v", err)
		}
	}()
	service.SetArgs(scenario)

	// コンテキストの作成
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// X-Rayセグメントの作成
	if cfg.EnableTracing {
		var seg *xray.Segment
		ctx, seg = xray.BeginSegment(ctx, projectName)
		defer seg.Close(nil)

		// セグメントにメタデータを追加
		if err := seg.AddMetadata("task_token", taskToken); err != nil {
			log.Printf("Failed to add task_token metadata: %v", err)
		}
		if err := seg.AddMetadata("scenario", scenario.Name); err != nil {
			log.Printf("Failed to add scenario metadata: %v", err)
		}
		if err := seg.AddMetadata("timeout", timeout.String()); err != nil {
			log.Printf("Failed to add timeout metadata: %v", err)
		}
	}

	// シグナルハンドリングの設定
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// バッチ処理の実行
	errChan := make(chan error, 1)
	go func() {
		errChan <- utils.RunWithTimeout(ctx, "scenario batch", *timeout, service.Run)
	}()

	// シグナルまたはエラーの待機
	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Printf("Batch process failed: %v", err)

			// ローカル環境以外の場合のみStep Functionsのエラー通知を行う
			if os.Getenv("ENV") != "LOCAL" && sfnClient != nil {
				input := &sfn.SendTaskFailureInput{
					TaskToken: aws.String(taskToken),
					Error:     aws.String("Batch process failed"),
					Cause:     aws.String(truncate(err.Error(), 32768)),
				}

				if _, err := sfnClient.SendTaskFailure(context.Background(), input); err != nil {
					log.Printf("Failed to send task failure: %v\nStack trace:\n%s", err, debug.Stack())
				}
			}

			return 1
		}

		if err := writeResult(*outputPath, service.Result()); err != nil {
			log.Printf("Failed to write result: %v", err)
		}
		log.Println("Batch process completed successfully")
	}

	return 0
}

// loadScenario はファイルまたは引数で指定されたシナリオを読み込みます
func loadScenario(path, inline string) (batch.Scenario, error) {
	switch {
	case path != "" && inline != "":
		return batch.Scenario{}, fmt.Errorf("--scenario and --scenario-inline are mutually exclusive")
	case path != "":
		return batch.LoadScenario(path)
	case inline != "":
		return batch.ParseScenario([]byte(inline), ".")
	default:
		return batch.Scenario{}, fmt.Errorf("either --scenario or --scenario-inline is required")
	}
}

// writeResult は実行結果をJSONで書き出します
func writeResult(path string, result *batch.RunResult) error {
	if path == "" || result == nil {
		return nil
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Step FunctionsのCauseは32768文字まで
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
