package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	livemodel "github.com/jagcoaching/backend/internal/model/live"
)

// 手工联调工具：创建会话、接入采样流、循环发送样本并打印反馈。

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	server := flag.String("server", "http://localhost:8000", "后端地址")
	framePath := flag.String("frame", "", "循环发送的视频帧文件路径 (jpeg)")
	audioPath := flag.String("audio", "", "循环发送的音频块文件路径 (pcm16)")
	sendEvery := flag.Duration("every", 2*time.Second, "样本发送间隔")
	token := flag.String("token", "", "可选的访问令牌")
	duration := flag.Duration("duration", 2*time.Minute, "测试运行时长")

	flag.Parse()

	if *framePath == "" && *audioPath == "" {
		flag.Usage()
		log.Fatal("请通过 -frame 或 -audio 至少指定一种样本文件")
	}

	frame := loadSample(*framePath, "image/jpeg")
	audio := loadSample(*audioPath, "audio/wav")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	sessionID := startSession(ctx, *server, *token)
	log.Printf("会话已创建: session=%s", sessionID)
	defer stopSession(*server, *token, sessionID)

	conn := dialStream(ctx, *server, sessionID)
	defer conn.Close()

	go readLoop(conn)

	ticker := time.NewTicker(*sendEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("测试结束")
			return
		case <-ticker.C:
			if frame != "" {
				send(conn, livemodel.TypeVideoFrame, frame)
			}
			if audio != "" {
				send(conn, livemodel.TypeAudioChunk, audio)
			}
		}
	}
}

func loadSample(path, mime string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("读取样本文件失败: %v", err)
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

func startSession(ctx context.Context, server, token string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/api/live/session/start", bytes.NewReader(nil))
	if err != nil {
		log.Fatalf("构造请求失败: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("创建会话失败: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("创建会话失败: status=%d", resp.StatusCode)
	}

	var payload struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Fatalf("解析会话响应失败: %v", err)
	}
	return payload.SessionID
}

func stopSession(server, token, sessionID string) {
	req, err := http.NewRequest(http.MethodPost, server+"/api/live/session/"+sessionID+"/stop", bytes.NewReader(nil))
	if err != nil {
		return
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("终止会话失败: %v", err)
		return
	}
	defer resp.Body.Close()

	var payload struct {
		Metrics livemodel.MetricsSnapshot `json:"metrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		pretty, _ := json.MarshalIndent(payload.Metrics, "", "  ")
		log.Printf("会话总结指标:\n%s", pretty)
	}
}

func dialStream(ctx context.Context, server, sessionID string) *websocket.Conn {
	wsURL := strings.Replace(server, "http", "ws", 1) + "/api/live/ws/" + sessionID

	var conn *websocket.Conn
	dial := func() error {
		c, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		if err != nil {
			log.Printf("连接采样流失败，准备重试: %v", err)
			return err
		}
		conn = c
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(dial, policy); err != nil {
		log.Fatalf("连接采样流失败: %v", err)
	}

	log.Printf("采样流已连接: %s", wsURL)
	return conn
}

func readLoop(conn *websocket.Conn) {
	for {
		var msg livemodel.OutboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Printf("采样流已断开: %v", err)
			return
		}

		switch msg.Type {
		case livemodel.TypePing:
			send(conn, livemodel.TypePong, "")
		case livemodel.TypeFeedback:
			pretty, _ := json.MarshalIndent(msg.Data, "", "  ")
			log.Printf("收到反馈:\n%s", pretty)
		case livemodel.TypeError:
			log.Printf("服务端提示: %s", msg.Error)
		default:
			log.Printf("收到未知消息: type=%s", msg.Type)
		}
	}
}

func send(conn *websocket.Conn, msgType, data string) {
	msg := livemodel.InboundMessage{Type: msgType, Data: data}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("发送消息失败: type=%s err=%v", msgType, err)
	}
}
