package api

import "html/template"

type pageData struct {
	RemoteURL string
}

var pageTmpl = template.Must(template.New("touchpad").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0, user-scalable=no">
    <title>TouchBridge</title>
    <style>
        :root { --bg: #0f172a; --panel: #1e293b; --text: #f1f5f9; --muted: #94a3b8; --ok: #22c55e; --err: #ef4444; --accent: #38bdf8; }
        * { box-sizing: border-box; }
        body { margin: 0; height: 100vh; display: flex; flex-direction: column; background: var(--bg); color: var(--text);
               font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; }
        header { padding: 0.75rem 1rem; display: flex; justify-content: space-between; align-items: center; }
        header small { color: var(--muted); }
        #status { padding: 0.5rem 1rem; font-size: 0.9rem; color: var(--muted); }
        #status.ok { color: var(--ok); }
        #status.err { color: var(--err); }
        #touchpad { flex: 1; margin: 0 1rem; border-radius: 12px; background: var(--panel); touch-action: none;
                    transition: box-shadow 0.15s; }
        #touchpad.single-touch { box-shadow: 0 0 0 3px var(--accent) inset; }
        #touchpad.multi-touch { box-shadow: 0 0 0 3px var(--ok) inset; }
        footer { padding: 1rem; display: flex; gap: 0.75rem; }
        button { flex: 1; padding: 0.75rem; border: 0; border-radius: 8px; background: var(--panel); color: var(--text); font-size: 1rem; }
    </style>
</head>
<body>
    <header>
        <strong>TouchBridge</strong>
        <small>{{if .RemoteURL}}{{.RemoteURL}}{{else}}no remote configured{{end}}</small>
    </header>
    <div id="status">Connecting...</div>
    <div id="touchpad"></div>
    <footer>
        <button id="reset">Reset touchpad</button>
    </footer>
    <script>
        const pad = document.getElementById('touchpad');
        const statusEl = document.getElementById('status');
        let ws;

        function points(list) {
            const rect = pad.getBoundingClientRect();
            return Array.from(list).map(t => ({ x: t.clientX - rect.left, y: t.clientY - rect.top }));
        }

        function send(msg) {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify(msg));
            }
        }

        function setStatus(message, connected) {
            statusEl.textContent = message;
            statusEl.className = connected ? 'ok' : 'err';
        }

        function showFeedback(category) {
            pad.classList.add(category);
            setTimeout(() => pad.classList.remove(category), 200);
        }

        function connect() {
            ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
            ws.onopen = () => setStatus('Remote controller ready', true);
            ws.onclose = () => { setStatus('Disconnected, retrying...', false); setTimeout(connect, 2000); };
            ws.onmessage = (e) => {
                const n = JSON.parse(e.data);
                if (n.type === 'feedback') showFeedback(n.category);
                if (n.type === 'status') setStatus(n.message, n.connected);
            };
        }

        pad.addEventListener('touchstart', e => { e.preventDefault(); send({ type: 'start', touches: points(e.touches) }); }, { passive: false });
        pad.addEventListener('touchmove', e => { e.preventDefault(); send({ type: 'move', touches: points(e.touches) }); }, { passive: false });
        pad.addEventListener('touchend', e => { e.preventDefault(); send({ type: 'end', touches: points(e.changedTouches) }); }, { passive: false });
        pad.addEventListener('touchcancel', e => { e.preventDefault(); send({ type: 'end', touches: points(e.changedTouches) }); }, { passive: false });
        pad.addEventListener('wheel', e => { e.preventDefault(); send({ type: 'wheel', dx: e.deltaX, dy: e.deltaY }); }, { passive: false });
        document.getElementById('reset').addEventListener('click', () => send({ type: 'reset' }));

        connect();
    </script>
</body>
</html>
`))
