// Copyright 2026 The Inkboard Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

// htmlPage is the drawing client served on "/". It opens a websocket back
// to "/chat", sends one "<path_id>, <x>, <y>" line per mouse move, and
// applies broadcast "<action>, <user_id>, <path_id>, <x>, <y>" lines to a
// canvas. Lines use CRLF endings; the 200 response's Content-Length
// computation depends on the trailing CRLF pair.
const htmlPage = "<!DOCTYPE html>\r\n" +
	"<html lang='en'>\r\n" +
	"  <head>\r\n" +
	"    <meta charset='utf-8' />\r\n" +
	"    <title>Inkboard</title>\r\n" +
	"    <style> document, body { margin: 0px; padding: 0px; overflow: hidden; } </style>\r\n" +
	"  </head>\r\n" +
	"\r\n" +
	"  <body>\r\n" +
	"    <canvas id='pagecanvas'></canvas>\r\n" +
	"    <script>'use strict'; (async () => {\r\n" +
	"const ws = new WebSocket(window.location.href + '/chat');\r\n" +
	"await new Promise(res => ws.onopen = res);\r\n" +
	"\r\n" +
	"const canvas = document.getElementById('pagecanvas');\r\n" +
	"const ctx = canvas.getContext('2d');\r\n" +
	"(window.onresize = () => {\r\n" +
	"  canvas.width = window.innerWidth*window.devicePixelRatio,\r\n" +
	"  canvas.height = window.innerHeight*window.devicePixelRatio\r\n" +
	"  canvas.style.width = window.innerWidth + 'px';\r\n" +
	"  canvas.style.height = window.innerHeight + 'px';\r\n" +
	"})();\r\n" +
	"\r\n" +
	"let input = {\r\n" +
	"  mouse_down: false,\r\n" +
	"  local_paths: [],\r\n" +
	"  server_paths: new Map(),\r\n" +
	"};\r\n" +
	"ws.onmessage = msg => {\r\n" +
	"  const [action, user_id, path_id, x, y] = msg\r\n" +
	"    .data\r\n" +
	"    .split(', ')\r\n" +
	"    .map(x => parseInt(x));\r\n" +
	"  const path_hash = user_id + '_' + path_id;\r\n" +
	"  if (!input.server_paths.has(path_hash))\r\n" +
	"    input.server_paths.set(path_hash, []);\r\n" +
	"  if (action == 1) input.server_paths.get(path_hash).push({ x, y });\r\n" +
	"  else if (action == 2) {\r\n" +
	"    input.server_paths.set(\r\n" +
	"      path_hash,\r\n" +
	"      input\r\n" +
	"        .server_paths\r\n" +
	"        .get(path_hash)\r\n" +
	"        .filter(p => {\r\n" +
	"          const delta = Math.sqrt((p.x - x)*(p.x - x) + (p.y - y)*(p.y - y));\r\n" +
	"          return delta > 1;\r\n" +
	"        })\r\n" +
	"    );\r\n" +
	"  }\r\n" +
	"};\r\n" +
	"\r\n" +
	"canvas.onmousedown = ev => {\r\n" +
	"  ev.preventDefault();\r\n" +
	"  input.mouse_down = true;\r\n" +
	"  input.local_paths.push([]);\r\n" +
	"};\r\n" +
	"canvas.onmouseup = ev => {\r\n" +
	"  ev.preventDefault();\r\n" +
	"  input.mouse_down = false;\r\n" +
	"};\r\n" +
	"canvas.onmousemove = ev => {\r\n" +
	"  ev.preventDefault();\r\n" +
	"  if (!input.mouse_down) return false;\r\n" +
	"  const x = ev.clientX * window.devicePixelRatio;\r\n" +
	"  const y = ev.clientY * window.devicePixelRatio;\r\n" +
	"  input.local_paths.at(-1).push({ x, y });\r\n" +
	"  ws.send(\r\n" +
	"    (input.local_paths.length - 1) +\r\n" +
	"      ', ' +\r\n" +
	"      x.toFixed(0) +\r\n" +
	"      ', ' +\r\n" +
	"      y.toFixed(0)\r\n" +
	"  );\r\n" +
	"}\r\n" +
	"\r\n" +
	"requestAnimationFrame(function render(now) {\r\n" +
	"  requestAnimationFrame(render);\r\n" +
	"\r\n" +
	"  ctx.fillStyle = 'white';\r\n" +
	"  ctx.fillRect(0, 0, canvas.width, canvas.height);\r\n" +
	"\r\n" +
	"  {\r\n" +
	"    ctx.beginPath();\r\n" +
	"    for (const path of input.server_paths.values()) {\r\n" +
	"      for (let i = 0; i < path.length; i++) {\r\n" +
	"        const p = path[i];\r\n" +
	"        ctx[i ? 'lineTo' : 'moveTo'](p.x, p.y);\r\n" +
	"      }\r\n" +
	"    }\r\n" +
	"    ctx.lineWidth = 4 * window.devicePixelRatio;\r\n" +
	"    ctx.stroke();\r\n" +
	"    ctx.closePath();\r\n" +
	"  }\r\n" +
	"})\r\n" +
	"\r\n" +
	"function lerp(v0, v1, t) { return (1 - t) * v0 + t * v1; }\r\n" +
	"function inv_lerp(min, max, p) { return (p - min) / (max - min); }\r\n" +
	"    })();</script>\r\n" +
	"  </body>\r\n" +
	"</html>\r\n"
