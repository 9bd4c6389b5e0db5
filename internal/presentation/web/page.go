package web

// indexPage страница фотобудки. Видео показывается отраженным средствами CSS,
// слой с узором приходит с сервера и накладывается без отражения.
const indexPage = `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>Фотобудка</title>
	<style>
		body { font-family: Arial, sans-serif; margin: 40px; }
		.status { padding: 20px; background-color: #e0f7fa; border-radius: 5px; margin-bottom: 20px; }
		.view { position: relative; width: 672px; height: 378px; overflow: hidden; background: #000; }
		.view img { position: absolute; inset: 0; width: 100%; height: 100%; }
		#video { object-fit: cover; transform: scaleX(-1); }
		#overlay { pointer-events: none; }
		#photo { max-width: 672px; display: none; }
		button { margin: 10px 5px 0 0; padding: 8px 16px; }
	</style>
</head>
<body>
	<h1>Фотобудка</h1>
	<div class="status" id="status">Подключение...</div>
	<div class="view" id="view">
		<img id="video" alt="">
		<img id="overlay" alt="">
	</div>
	<img id="photo" alt="снимок">
	<div>
		<button data-action="start">Включить камеру</button>
		<button data-action="capture" id="shutter" disabled>Снять</button>
		<button data-action="retake">Переснять</button>
		<button data-action="cancel">Отмена</button>
	</div>
	<script>
		const view = document.getElementById('view');
		const video = document.getElementById('video');
		const overlay = document.getElementById('overlay');
		const photo = document.getElementById('photo');
		const status = document.getElementById('status');
		const shutter = document.getElementById('shutter');
		const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
		ws.binaryType = 'arraybuffer';

		function size(type) {
			const r = view.getBoundingClientRect();
			ws.send(JSON.stringify({type: type, width: r.width, height: r.height}));
		}

		function show(img, buf, mime) {
			const old = img.src;
			img.src = URL.createObjectURL(new Blob([buf.slice(1)], {type: mime}));
			if (old) URL.revokeObjectURL(old);
		}

		ws.onopen = () => size('mounted');
		window.addEventListener('resize', () => size('resize'));

		ws.onmessage = (e) => {
			if (e.data instanceof ArrayBuffer) {
				const kind = new Uint8Array(e.data)[0];
				if (kind === 1) show(video, e.data, 'image/jpeg');
				if (kind === 2) show(overlay, e.data, 'image/png');
				return;
			}
			const msg = JSON.parse(e.data);
			if (msg.type === 'state') {
				const st = msg.status;
				status.textContent = st.message || st.state;
				shutter.disabled = !st.canCapture;
				view.style.display = st.state === 'captured' ? 'none' : 'block';
				photo.style.display = st.state === 'captured' ? 'block' : 'none';
			} else if (msg.type === 'photo') {
				photo.src = msg.dataUrl;
			} else if (msg.type === 'error') {
				status.textContent = msg.error;
			}
		};
		ws.onclose = () => { status.textContent = 'Соединение закрыто'; };

		document.querySelectorAll('button[data-action]').forEach((b) => {
			b.onclick = () => ws.send(JSON.stringify({type: 'command', action: b.dataset.action}));
		});
	</script>
</body>
</html>
`
