// Package main provides localization for the vidsz CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Backend": "バックエンド",
		"Logging": "ログ",
		"Output":  "出力",
		"Reading": "読み込み",
		"Debug":   "デバッグ",

		// Root command
		"Read, write and copy video frames in batches": "動画フレームをバッチ単位で読み書き・コピー",
		"vidsz copies frames between video files, image sequences, capture devices and synthetic sources.": "vidszは動画ファイル、連番画像、キャプチャデバイス、合成ソースの間でフレームをコピーします。",
		"vidsz version %s": "vidsz バージョン %s",
		"Error: %v":        "エラー: %v",

		// Global flags
		"YAML configuration file": "YAML設定ファイル",
		"Default media backend (ffmpeg, opencv, vidio)":                        "既定のメディアバックエンド（ffmpeg, opencv, vidio）",
		"Path to ffmpeg executable (falls back to FFMPEG_PATH env, then PATH)":   "ffmpeg実行ファイルのパス（未指定時はFFMPEG_PATH環境変数、次にPATH）",
		"Path to ffprobe executable (falls back to FFPROBE_PATH env, then PATH)": "ffprobe実行ファイルのパス（未指定時はFFPROBE_PATH環境変数、次にPATH）",
		"Frame rate reported for image sequences":                              "連番画像のフレームレート",
		"Log level (debug, info, warn, error)":                                 "ログレベル（debug, info, warn, error）",
		"Log format (console, text, json, zap)":                                "ログ形式（console, text, json, zap）",
		"Write logs to a rotated file instead of the console":                  "ログをコンソールではなくローテーションするファイルに出力",
		"Suppress all log output":                                              "全てのログ出力を抑制",

		// Info command
		"Show the properties of a source":             "ソースの情報を表示",
		"Output format (text, yaml)":                  "出力形式（text, yaml）",
		"Decode the whole source to count its frames": "ソース全体をデコードしてフレーム数を数える",
		"Also read the MP4 container headers":         "MP4コンテナのヘッダーも読む",
		"container: %dx%d @ %.2f fps, %d frames, %s":  "コンテナ: %dx%d @ %.2f fps, %d フレーム, %s",
		"unknown format %q":                           "不明な形式 %q",

		// Copy command
		"Copy frames from a source to a destination": "ソースから出力先へフレームをコピー",
		"Reads the source in batches and writes every frame to the destination. Size and frame rate are inherited from the source unless overridden.": "ソースをバッチ単位で読み込み、全フレームを出力先に書き込みます。サイズとフレームレートは指定がなければソースから引き継ぎます。",
		"Destination path (default: <source>_out<ext>)":        "出力先パス（デフォルト: <source>_out<ext>）",
		"Container extension used to pick the codec":           "コーデック選択に使うコンテナ拡張子",
		"Codec name passed to the backend":                     "バックエンドに渡すコーデック名",
		"Destination frame rate":                               "出力フレームレート",
		"Video quality (CRF 0-63, lower is better)":            "動画品質（CRF 0-63、低いほど高品質）",
		"Target bitrate in kbps":                               "目標ビットレート（kbps）",
		"Frames per read":                                      "1回の読み込みのフレーム数",
		"Keep a short final batch instead of discarding it":    "最後の不完全なバッチを破棄せずに残す",
		"Stop after writing this many frames (0 = unlimited)":  "このフレーム数を書き込んだら停止（0 = 無制限）",
		"Output execution summary to file (Markdown format)":   "実行サマリーをファイルに出力（Markdown形式）",
		"Directory for debug output":                           "デバッグ出力のディレクトリ",
		"Save every Nth frame to the debug directory":          "N フレームごとにデバッグディレクトリへ保存",
		"exactly one source argument is required":              "ソース引数をちょうど1つ指定してください",

		// Backends command
		"List media backends and whether they are usable": "メディアバックエンドと利用可否を一覧表示",
		"available":   "利用可能",
		"unavailable": "利用不可",

		// Summary content
		"Copy Summary":   "コピーサマリー",
		"Run":            "実行ID",
		"Generated":      "生成日時",
		"Source":         "入力",
		"Destination":    "出力",
		"Settings":       "設定",
		"Result":         "結果",
		"Item":           "項目",
		"Value":          "値",
		"Name":           "名前",
		"Frame Size":     "フレームサイズ",
		"Frame Rate":     "フレームレート",
		"Frames":         "フレーム数",
		"Codec":          "コーデック",
		"Container":      "コンテナ",
		"Batch Size":     "バッチサイズ",
		"Dynamic Batch":  "可変バッチ",
		"Max Frames":     "最大フレーム数",
		"Quality":        "品質",
		"Bitrate":        "ビットレート",
		"Frames Read":    "読み込みフレーム数",
		"Frames Written": "書き込みフレーム数",
		"Batches":        "バッチ数",
		"Discarded":      "破棄フレーム数",
		"Duration":       "再生時間",
		"Elapsed":        "処理時間",
		"Throughput":     "処理速度",
		"File Size":      "ファイルサイズ",
		"unknown":        "不明",
		"unlimited":      "無制限",
		"default":        "既定",
		"yes":            "はい",
		"no":             "いいえ",
		"Generated by":   "生成:",
	})
}
