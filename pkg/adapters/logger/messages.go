package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Command level messages (info)
		"Copying %s to %s":                          "%s を %s へコピー中",
		"Source: %dx%d @ %.2f fps, %s backend":      "入力: %dx%d @ %.2f fps, %s バックエンド",
		"Destination: %dx%d @ %.2f fps, %s backend": "出力: %dx%d @ %.2f fps, %s バックエンド",
		"Wrote %d frames to %s in %s":               "%d フレームを %s に書き込みました (%s)",
		"Reached frame limit of %d":                 "フレーム上限 %d に達しました",
		"Summary saved to %s":                       "サマリーを %s に保存しました",
		"Interrupted, finishing current batch...":   "中断されました。現在のバッチを完了しています...",

		// Reader and writer sessions
		"Opened %s with %s backend: %dx%d @ %.2f fps":      "%s を %s バックエンドで開きました: %dx%d @ %.2f fps",
		"Opened %s with %s backend: %dx%d @ %.2f fps (%s)": "%s を %s バックエンドで開きました: %dx%d @ %.2f fps (%s)",
		"Discarded %d frames of incomplete batch":          "不完全なバッチの %d フレームを破棄しました",
		"Released %s after %d frames":                      "%[2]d フレーム処理後に %[1]s を解放しました",

		// Backend routing
		"Routing source %s to %s":      "入力 %s を %s に振り分けます",
		"Routing destination %s to %s": "出力 %s を %s に振り分けます",

		// ffmpeg backend
		"Probed %s: %dx%d @ %.2f fps, %d frames, %s":  "%s を解析: %dx%d @ %.2f fps, %d フレーム, %s",
		"Encoding %s with %s at %dx%d @ %.2f fps":     "%s を %s でエンコード中: %dx%d @ %.2f fps",
		"ffprobe unavailable, probing %s as MP4":      "ffprobe が見つからないため %s を MP4 として解析します",
		"Writing %s with %s at %dx%d @ %.2f fps":      "%s を %s で書き込み中: %dx%d @ %.2f fps",
		"Writing %s at %dx%d @ %.2f fps":              "%s を書き込み中: %dx%d @ %.2f fps",
		"Opened %s at %dx%d @ %.2f fps":               "%s を開きました: %dx%d @ %.2f fps",
		"Opened camera %d at %dx%d":                   "カメラ %d を開きました: %dx%d",
		"Writing Motion-JPEG %s at %dx%d @ %d fps":    "Motion-JPEG %s を書き込み中: %dx%d @ %d fps",
		"Generating %s %dx%d @ %.2f fps, %d frames":   "%s を生成中: %dx%d @ %.2f fps, %d フレーム",

		// Image sequences
		"Opened %d images from %s at %dx%d": "%[2]s から %[1]d 枚の画像を開きました: %[3]dx%[4]d",
		"Writing %s images to %s":           "%s 画像を %s に書き込み中",
		"Scaling %s from %dx%d to %dx%d":    "%s を %dx%d から %dx%d に拡縮します",

		// Warnings
		"ffmpeg not available, writing %s as Motion-JPEG": "ffmpeg が利用できないため %s を Motion-JPEG で書き込みます",
		"%v, using %s":                                    "%v。%s を使用します",

		// Errors
		"Copy failed: %v":             "コピーに失敗しました: %v",
		"Failed to write summary: %s": "サマリーの書き込みに失敗しました: %s",
	})
}
