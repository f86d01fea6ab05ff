// Package benchmark はマルチクライアントのファイルI/Oベンチマーク実行機能を提供する。
//
// Engine は設定からタスクの分割と並べ替えを行い、クライアントごとの
// 実行記述子を組み立て、ランナーを1回だけ呼び出して結果を集計する。
//
// # 処理の流れ
//
// - Partition: ファイル集合をプライベート範囲と共有範囲に分ける
// - Arrange: オーバーラップスタイルに従って各クライアントのタスク列を作る
// - Compose: クライアントごとの Invocation を作る
// - Run: ランナーで全クライアントを実行する
// - Aggregate: 結果行を集計する
//
// # 使用例
//
//	cfg := config.Default()
//	cfg.NClients = 4
//	engine := benchmark.New(cfg, benchmark.NewRunner(cfg))
//	result, err := engine.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary.Format())
package benchmark
